package database

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/object"
)

// Session binds a sequence of operations to one storage transaction. The
// transaction is opened on first use, read-only until the first write. A
// Session is not safe for concurrent use and must be closed.
type Session struct {
	id     uuid.UUID
	db     *Database
	tracer *log.ContextTracer
	// ownTracer is set if the tracer was created by the session.
	ownTracer bool

	tx      storage.Tx
	aborted error
	touched []object.Spec

	closed *abool.AtomicBool
}

func newSession(ctx context.Context, db *Database) *Session {
	id, err := uuid.NewV4()
	if err != nil {
		log.Warningf("database: failed to generate session id: %s", err)
	}
	tracer := log.Tracer(ctx)
	ownTracer := false
	if tracer == nil {
		_, tracer = log.AddTracer(ctx)
		ownTracer = true
	}

	db.metrics.SessionOpened()
	s := &Session{
		id:        id,
		db:        db,
		tracer:    tracer,
		ownTracer: ownTracer,
		closed:    abool.New(),
	}
	s.tracer.Tracef("database: session %s opened", s.id)
	return s
}

// ID returns the identifier of the session.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// reader returns the current transaction, starting a read-only one if there is none.
func (s *Session) reader() (storage.Tx, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.tx != nil {
		return s.tx, nil
	}

	tx, err := s.db.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return tx, nil
}

// writer returns a writable transaction. A read-only transaction is
// discarded and replaced.
func (s *Session) writer() (storage.Tx, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.tx != nil && s.tx.Writable() {
		return s.tx, nil
	}
	if s.tx != nil {
		err := s.tx.Rollback()
		s.tx = nil
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.db.storage.Begin(true)
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return tx, nil
}

func (s *Session) check() error {
	switch {
	case s.closed.IsSet():
		return ErrSessionClosed
	case s.aborted != nil:
		return ErrTransactionAborted
	default:
		return nil
	}
}

// abort rolls back the transaction after a failed write.
func (s *Session) abort(cause error) {
	s.tracer.Warningf("database: session %s aborted: %s", s.id, cause)
	s.aborted = cause
	s.touched = nil
	if s.tx != nil {
		err := s.tx.Rollback()
		if err != nil {
			log.Warningf("database: failed to roll back aborted transaction: %s", err)
		}
		s.tx = nil
	}
}

// Commit persists all changes of the session. If a write failed before,
// nothing is persisted and ErrTransactionAborted is returned. The session
// can be used again afterwards.
func (s *Session) Commit() (err error) {
	defer s.observe("commit", time.Now(), &err)

	if s.closed.IsSet() {
		return ErrSessionClosed
	}
	if s.aborted != nil {
		s.aborted = nil
		return ErrTransactionAborted
	}
	if s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	err = tx.Commit()
	if err != nil {
		s.touched = nil
		return err
	}

	s.db.invalidate(s.touched)
	s.touched = nil
	return nil
}

// Rollback discards all changes of the session and resets an aborted transaction.
func (s *Session) Rollback() error {
	if s.closed.IsSet() {
		return ErrSessionClosed
	}

	s.aborted = nil
	s.touched = nil
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

// Close rolls back anything uncommitted and returns the session slot. It is
// safe to call Close multiple times.
func (s *Session) Close() error {
	if !s.closed.SetToIf(false, true) {
		return nil
	}

	var result *multierror.Error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil {
			result = multierror.Append(result, err)
		}
		s.tx = nil
	}
	s.touched = nil

	s.db.sessions.Release(1)
	s.db.metrics.SessionClosed()
	s.tracer.Tracef("database: session %s closed", s.id)
	if s.ownTracer {
		s.tracer.Submit(log.DebugLevel, "database: session "+s.id.String())
	}

	return result.ErrorOrNil()
}

// observe records the metrics of an operation.
func (s *Session) observe(op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	// A missing entry is an answer, not a failure.
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	s.db.metrics.Observe(op, start, err)
}
