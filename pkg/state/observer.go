package state

// Source tags the origin of an applied change.
type Source string

const (
	SourceUser    Source = "user"
	SourceProgram Source = "program"
)

type ApplyOptions struct {
	// Source defaults to SourceUser.
	Source Source
	// Extra is passed through to the observer unchanged.
	Extra any
}

// WillChangeEvent is delivered before a batch is applied.
type WillChangeEvent struct {
	Source  Source
	Current Blocks
	Changes *Batch
	Extra   any
}

// ChangeEvent is delivered after a batch has been applied.
type ChangeEvent struct {
	ID       string
	Source   Source
	Previous Blocks
	Current  Blocks
	Changes  *Batch
	Inserts  *IDSet
	Updates  *IDSet
	Deletes  *IDSet
	Extra    any
}

// Observer is notified synchronously around every apply. Return values
// are not awaited, and observers must not call Apply re-entrantly.
type Observer interface {
	ContentWillChange(WillChangeEvent)
	ContentChanged(ChangeEvent)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	WillChange func(WillChangeEvent)
	Changed    func(ChangeEvent)
}

func (o ObserverFuncs) ContentWillChange(e WillChangeEvent) {
	if o.WillChange != nil {
		o.WillChange(e)
	}
}

func (o ObserverFuncs) ContentChanged(e ChangeEvent) {
	if o.Changed != nil {
		o.Changed(e)
	}
}

var _ Observer = ObserverFuncs{}
