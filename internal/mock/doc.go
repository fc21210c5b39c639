// Package mock holds gomock doubles for the bridge's collaborator interfaces.
package mock

//go:generate mockgen -destination=mock_session.go -package=mock FitTrack-Bridge/internal/companion Session,SessionDelegate
//go:generate mockgen -destination=mock_channel.go -package=mock FitTrack-Bridge/internal/channel Channel
//go:generate mockgen -destination=mock_sink.go -package=mock FitTrack-Bridge/internal/host Sink
