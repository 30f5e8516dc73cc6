package update

// EventKind identifies a point in the update lifecycle.
type EventKind string

const (
	EventCheckStart      EventKind = "check_start"
	EventUpToDate        EventKind = "up_to_date"
	EventUpdateAvailable EventKind = "update_available"
	EventDownloadStart   EventKind = "download_start"
	EventDownloadDone    EventKind = "download_done"
	EventVerified        EventKind = "verified"
	EventStaged          EventKind = "staged"
	EventHelperSpawned   EventKind = "helper_spawned"
	EventError           EventKind = "error"
)

// Event is a lifecycle notification emitted by the orchestrator so the
// CLI can render progress without the orchestrator knowing about
// terminals.
type Event struct {
	Kind    EventKind
	Version string
	Asset   string
	Err     error
}

// EventFunc receives lifecycle events. Never called concurrently.
type EventFunc func(Event)

func (u *Updater) emit(e Event) {
	if u.events != nil {
		u.events(e)
	}
}
