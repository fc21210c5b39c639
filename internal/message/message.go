// Package message defines the messages exchanged between the companion and
// the host, and their key-value wire form.
package message

// Kind tags a Message.
type Kind int

const (
	KindUnknown Kind = iota
	KindWatchReady
	KindWorkoutStatus
	KindLiveData
	KindWorkoutComplete
	KindCommand
)

// Wire values of the "type" key.
const (
	TypeWatchReady      = "watchReady"
	TypeWorkoutStatus   = "workoutStatus"
	TypeLiveData        = "liveData"
	TypeWorkoutComplete = "workoutComplete"
)

// Wire keys.
const (
	KeyType      = "type"
	KeyCommand   = "command"
	KeyActive    = "isActive"
	KeyHeartRate = "heartRate"
	KeyCalories  = "calories"
	KeySteps     = "steps"
	KeyDistance  = "distance"
	KeyDuration  = "duration"
)

func (k Kind) String() string {
	switch k {
	case KindWatchReady:
		return TypeWatchReady
	case KindWorkoutStatus:
		return TypeWorkoutStatus
	case KindLiveData:
		return TypeLiveData
	case KindWorkoutComplete:
		return TypeWorkoutComplete
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Deferrable reports whether a message of this kind may fall back to
// deferred transfer when an immediate send is not possible. Live samples go
// stale within a tick and commands are best effort, so neither is queued.
func (k Kind) Deferrable() bool {
	switch k {
	case KindWatchReady, KindWorkoutStatus, KindWorkoutComplete:
		return true
	default:
		return false
	}
}

// CommandName is a host-issued workout command.
type CommandName string

const (
	StartWorkout CommandName = "startWorkout"
	StopWorkout  CommandName = "stopWorkout"
)

func (c CommandName) valid() bool {
	return c == StartWorkout || c == StopWorkout
}

// Metrics is the workout snapshot carried by LiveData and WorkoutComplete.
type Metrics struct {
	HeartRate       int
	Calories        int
	Steps           int
	DistanceMeters  float64
	DurationSeconds int
}

// Message is a tagged union; which fields are meaningful depends on Kind.
//
//	WatchReady, WorkoutStatus: Active
//	LiveData:                  Metrics, Active
//	WorkoutComplete:           Metrics (Active is always false)
//	Command:                   Command
type Message struct {
	Kind    Kind
	Active  bool
	Metrics Metrics
	Command CommandName
}

func NewWatchReady(active bool) Message {
	return Message{Kind: KindWatchReady, Active: active}
}

func NewWorkoutStatus(active bool) Message {
	return Message{Kind: KindWorkoutStatus, Active: active}
}

func NewLiveData(m Metrics, active bool) Message {
	return Message{Kind: KindLiveData, Metrics: m, Active: active}
}

func NewWorkoutComplete(m Metrics) Message {
	return Message{Kind: KindWorkoutComplete, Metrics: m}
}

func NewCommand(name CommandName) Message {
	return Message{Kind: KindCommand, Command: name}
}
