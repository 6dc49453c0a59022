package rotation

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// OperationKind identifies what a Operation does when executed.
type OperationKind int

const (
	FileMove OperationKind = iota
	FileRename
	FileDelete
	DirCreate
	Compress
	Custom
)

// Operation is one reversible step of a rotation Transaction. Forward
// performs the step; Rollback undoes it. Both are supplied by the
// caller building the transaction (the rotation Engine), since only it
// knows enough to construct a correct inverse for each step kind.
type Operation struct {
	Kind     OperationKind
	Source   string
	Target   string
	Backup   string
	Forward  func() error
	Rollback func() error
	Executed bool
	Success  bool
	Err      error
}

// Transaction is an ordered sequence of Operations executed as a unit:
// either every operation succeeds and the transaction commits, or any
// failure triggers rollback of every operation already executed, in
// reverse order.
type Transaction struct {
	ID        string
	Ops       []*Operation
	BackupDir string
	Timeout   time.Duration
	Window    struct {
		Start time.Time
		End   time.Time
	}

	closed bool
}

// NewTransaction builds a Transaction with a fresh v4 UUID identity,
// grounded on gastrolog's dependency on github.com/google/uuid: a
// rotation id must be generated safely from many concurrent worker
// goroutines without a shared counter.
func NewTransaction(backupDir string, timeout time.Duration) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		BackupDir: backupDir,
		Timeout:   timeout,
	}
}

// AddOperation appends op to the transaction. Must be called before Execute.
func (t *Transaction) AddOperation(op *Operation) error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.Ops = append(t.Ops, op)
	return nil
}

// Execute runs every operation's Forward function in order. On the
// first failure it rolls back every operation already executed, in
// reverse order, and returns the original error.
func (t *Transaction) Execute() error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.Window.Start = time.Now()

	for i, op := range t.Ops {
		if err := op.Forward(); err != nil {
			op.Executed = true
			op.Success = false
			op.Err = err
			t.rollback(i)
			t.closed = true
			t.Window.End = time.Now()
			return fmt.Errorf("rotation: operation %d (%v) failed: %w", i, op.Kind, err)
		}
		op.Executed = true
		op.Success = true
	}
	return nil
}

// rollback undoes operations [0, failedIndex] in reverse order,
// continuing past individual rollback errors so a best-effort recovery
// still touches every executed step.
func (t *Transaction) rollback(failedIndex int) {
	for i := failedIndex; i >= 0; i-- {
		op := t.Ops[i]
		if !op.Executed || op.Rollback == nil {
			continue
		}
		_ = op.Rollback()
	}
}

// Commit finalizes a successfully Executed transaction, removing the
// backup directory since it is no longer needed.
func (t *Transaction) Commit() error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true
	t.Window.End = time.Now()
	if t.BackupDir != "" {
		return os.RemoveAll(t.BackupDir)
	}
	return nil
}

// Rollback undoes every executed operation, in reverse order, and
// closes the transaction. Safe to call after a failed Execute (which
// already rolled back) as a no-op, or after a successful Execute to
// force an undo before Commit.
func (t *Transaction) Rollback() error {
	if t.closed {
		return nil
	}
	t.rollback(len(t.Ops) - 1)
	t.closed = true
	t.Window.End = time.Now()
	return nil
}
