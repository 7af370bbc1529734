package repokit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tagtime/internal/platform/store"
)

// txLog records statements and whether the tx committed
type txLog struct {
	stmts     []string
	committed bool
	rolled    bool
}

type logQ struct{ log *txLog }

func (q logQ) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	q.log.stmts = append(q.log.stmts, sql)
	var z store.CommandTag
	return z, nil
}
func (q logQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (q logQ) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type logTx struct {
	logQ
}

func (t logTx) Tx(ctx context.Context, fn func(Queryer) error) error {
	if err := fn(t.logQ); err != nil {
		t.log.rolled = true
		return err
	}
	t.log.committed = true
	return nil
}

type pingRepo struct{ q Queryer }

func (r pingRepo) insert(ctx context.Context) error {
	_, err := r.q.Exec(ctx, "INSERT INTO pings")
	return err
}

var binder = BindFunc[pingRepo](func(q Queryer) pingRepo { return pingRepo{q: q} })

func TestInTx_CommitsAndRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	log := &txLog{}
	db := logTx{logQ{log}}
	if err := InTx(ctx, db, binder, func(r pingRepo) error { return r.insert(ctx) }); err != nil {
		t.Fatal(err)
	}
	if !log.committed || len(log.stmts) != 1 {
		t.Fatalf("log = %+v", log)
	}

	log2 := &txLog{}
	boom := errors.New("boom")
	err := InTx(ctx, logTx{logQ{log2}}, binder, func(pingRepo) error { return boom })
	if !errors.Is(err, boom) || !log2.rolled || log2.committed {
		t.Fatalf("err %v log %+v", err, log2)
	}
}

func TestWithBeginHooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	log := &txLog{}
	var db TxRunner = logTx{logQ{log}}
	if WithBeginHooks(db) != db {
		t.Fatalf("no hooks should return db unchanged")
	}

	timeout := func(ctx context.Context, q Queryer) error {
		_, err := q.Exec(ctx, "SET LOCAL lock_timeout = 5000")
		return err
	}
	hdb := WithBeginHooks(db, timeout)
	if err := InTx(ctx, hdb, binder, func(r pingRepo) error { return r.insert(ctx) }); err != nil {
		t.Fatal(err)
	}
	if strings.Join(log.stmts, ";") != "SET LOCAL lock_timeout = 5000;INSERT INTO pings" {
		t.Fatalf("stmts = %v", log.stmts)
	}

	// plain reads bypass hooks
	if _, err := hdb.Exec(ctx, "SELECT 1"); err != nil || len(log.stmts) != 3 {
		t.Fatalf("exec passthrough: %v %v", err, log.stmts)
	}

	failing := WithBeginHooks(db, func(context.Context, Queryer) error { return errors.New("no lock") })
	ran := false
	err := InTx(ctx, failing, binder, func(pingRepo) error { ran = true; return nil })
	if err == nil || ran {
		t.Fatalf("failing hook must stop the tx: err %v ran %v", err, ran)
	}
}
