package metrics

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall traces a method call with a given struct/package and method
// names. The call is traced as a segment of the transaction in ctx. Without
// one, a new transaction is started if ctx carries an application. A nil
// tracer is returned when there's nothing to trace to, and is safe to use.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	name := fmt.Sprintf("%s %s", structOrPackageName, methodName)

	txn := newrelic.FromContext(ctx)
	if txn != nil {
		return &MethodTracer{
			txn: txn,
			seg: txn.StartSegment(name),
		}
	}

	app, ok := FromContext(ctx)
	if !ok {
		return nil
	}

	txn = app.StartTransaction(name)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn:     txn,
		ownsTxn: true,
	}
}

// MethodTracer collects analytics for a given method call.
type MethodTracer struct {
	txn     *newrelic.Transaction
	seg     *newrelic.Segment
	ownsTxn bool
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	if t.seg != nil {
		t.seg.AddAttribute(key, value)
		return
	}
	t.txn.AddAttribute(key, value)
}

// AddAttributes adds a set of key-value pair metadata to the method trace
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError observes an error within a method trace
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

// End completes the trace for the method call.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	if t.seg != nil {
		t.seg.End()
	}
	if t.ownsTxn {
		t.txn.End()
	}
}
