// Package trace provides tracers that record the memory transactions flowing
// through the caches, the bus, and the memory.
package trace

import (
	"log"

	"github.com/sarchlab/msisim/datarecording"
	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

const (
	transactionTableName = "memory_transactions"
	stepTableName        = "memory_steps"
)

type transactionEntry struct {
	ID        string
	Location  string
	What      string
	OpKind    string
	Pipeline  string
	Address   uint64
	ByteSize  uint64
	StartTime uint64
	EndTime   uint64
}

type stepEntry struct {
	TaskID string
	Time   uint64
	What   string
}

// A logTracer writes one line per task event.
type logTracer struct {
	timeTeller sim.TimeTeller
	logger     *log.Logger
}

// NewTracer creates a tracer that prints memory tasks to a logger.
func NewTracer(logger *log.Logger, timeTeller sim.TimeTeller) tracing.Tracer {
	return &logTracer{
		timeTeller: timeTeller,
		logger:     logger,
	}
}

func (t *logTracer) StartTask(task tracing.Task) {
	trans, ok := task.Detail.(*mem.Transaction)
	if !ok {
		return
	}

	t.logger.Printf("start, %d, %s, %s, %s, 0x%x, %d\n",
		t.timeTeller.CurrentTime(), task.Where, task.ID, task.What,
		trans.Address, trans.Length)
}

func (t *logTracer) StepTask(task tracing.Task) {
	for _, step := range task.Steps {
		t.logger.Printf("step, %d, %s, %s\n",
			t.timeTeller.CurrentTime(), task.ID, step.What)
	}
}

func (t *logTracer) EndTask(task tracing.Task) {
	t.logger.Printf("end, %d, %s\n", t.timeTeller.CurrentTime(), task.ID)
}

// A dbTracer stores memory tasks and their steps in a data recorder. Tasks
// that do not carry a transaction are skipped.
type dbTracer struct {
	timeTeller   sim.TimeTeller
	dataRecorder datarecording.DataRecorder
	pending      map[string]*transactionEntry
}

// NewDBTracer creates a tracer that records memory tasks in two tables, one
// for the transactions and one for their steps.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	timeTeller sim.TimeTeller,
) tracing.Tracer {
	t := &dbTracer{
		timeTeller:   timeTeller,
		dataRecorder: dataRecorder,
		pending:      make(map[string]*transactionEntry),
	}

	dataRecorder.CreateTable(transactionTableName, transactionEntry{})
	dataRecorder.CreateTable(stepTableName, stepEntry{})

	return t
}

func (t *dbTracer) StartTask(task tracing.Task) {
	trans, ok := task.Detail.(*mem.Transaction)
	if !ok {
		return
	}

	t.pending[task.ID] = &transactionEntry{
		ID:        task.ID,
		Location:  task.Where,
		What:      task.What,
		OpKind:    trans.Tags.OpKind.String(),
		Pipeline:  trans.Tags.PipelineKind.String(),
		Address:   trans.Address,
		ByteSize:  uint64(trans.Length),
		StartTime: uint64(t.timeTeller.CurrentTime()),
	}
}

func (t *dbTracer) StepTask(task tracing.Task) {
	if _, found := t.pending[task.ID]; !found {
		return
	}

	for _, step := range task.Steps {
		t.dataRecorder.InsertData(stepTableName, stepEntry{
			TaskID: task.ID,
			Time:   uint64(t.timeTeller.CurrentTime()),
			What:   step.What,
		})
	}
}

func (t *dbTracer) EndTask(task tracing.Task) {
	entry, found := t.pending[task.ID]
	if !found {
		return
	}

	entry.EndTime = uint64(t.timeTeller.CurrentTime())
	t.dataRecorder.InsertData(transactionTableName, *entry)

	delete(t.pending, task.ID)
}
