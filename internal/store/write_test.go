package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/policy"
)

func TestValidate_Order(t *testing.T) {
	s, _ := createTestStore(t)
	unknown := mib.MustParseOID("1.3.6.1.4.1.28308.1.9.0")

	tests := []struct {
		name string
		oid  mib.OID
		val  mib.Value
		cap  policy.Capability
		want error
	}{
		{"ok text", managerOID, mib.Text("Ops"), policy.ReadWrite, nil},
		{"ok integer", thresholdOID, mib.Integer(90), policy.ReadWrite, nil},
		{"unknown oid", unknown, mib.Text("x"), policy.ReadWrite, mib.NoAccess},
		{"unknown beats capability", unknown, mib.Text("x"), policy.ReadOnly, mib.NoAccess},
		{"read-only object", cpuUsageOID, mib.Integer(50), policy.ReadWrite, mib.NotWritable},
		{"read-only object beats capability", cpuUsageOID, mib.Integer(50), policy.ReadOnly, mib.NotWritable},
		{"read-only object beats type", cpuUsageOID, mib.Text("50"), policy.ReadWrite, mib.NotWritable},
		{"capability denial", managerOID, mib.Text("Ops"), policy.ReadOnly, mib.NoAccess},
		{"capability beats type", managerOID, mib.Integer(1), policy.ReadOnly, mib.NoAccess},
		{"wrong type", managerOID, mib.Integer(1), policy.ReadWrite, mib.WrongType},
		{"nil candidate", managerOID, nil, policy.ReadWrite, mib.WrongType},
		{"type beats value", thresholdOID, mib.Text(strings.Repeat("x", 500)), policy.ReadWrite, mib.WrongType},
		{"wrong value high", thresholdOID, mib.Integer(101), policy.ReadWrite, mib.WrongValue},
		{"wrong value low", thresholdOID, mib.Integer(-1), policy.ReadWrite, mib.WrongValue},
		{"empty text", managerOID, mib.Text(""), policy.ReadWrite, mib.WrongValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.oid, tt.val, tt.cap)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_CapabilityDenialPolicy(t *testing.T) {
	s, _ := createTestStore(t, WithCapabilityDenial(mib.NotWritable))

	assert.ErrorIs(t, s.Validate(managerOID, mib.Text("Ops"), policy.ReadOnly), mib.NotWritable)
	assert.ErrorIs(t, s.Validate(mib.OID{9}, mib.Text("Ops"), policy.ReadOnly), mib.NoAccess,
		"unknown objects stay NoAccess under either policy")
}

func TestValidate_ReadOnlyCallerNeverSucceeds(t *testing.T) {
	s, _ := createTestStore(t)

	candidates := []mib.Value{mib.Text("a"), mib.Text("Ops"), mib.Integer(0), mib.Integer(50), nil}
	for _, d := range s.Catalog().Descriptors() {
		for _, c := range candidates {
			err := s.Validate(d.OID, c, policy.ReadOnly)
			require.Error(t, err)
			kind := KindOf(err)
			assert.Contains(t, []mib.ErrorKind{mib.NoAccess, mib.NotWritable}, kind, "%s <- %v", d.Name, c)
		}
	}
}

func TestValidate_TextBoundaries(t *testing.T) {
	s, _ := createTestStore(t)

	// manager is [1, 64], managerEmail is [3, 128]
	tests := []struct {
		oid  mib.OID
		n    int
		want error
	}{
		{managerOID, 0, mib.WrongValue},
		{managerOID, 1, nil},
		{managerOID, 64, nil},
		{managerOID, 65, mib.WrongValue},
		{emailOID, 2, mib.WrongValue},
		{emailOID, 3, nil},
		{emailOID, 128, nil},
		{emailOID, 129, mib.WrongValue},
	}
	for _, tt := range tests {
		err := s.Validate(tt.oid, mib.Text(strings.Repeat("é", tt.n)), policy.ReadWrite)
		if tt.want == nil {
			assert.NoError(t, err, "%s len %d", tt.oid, tt.n)
		} else {
			assert.ErrorIs(t, err, tt.want, "%s len %d", tt.oid, tt.n)
		}
	}
}

func TestValidateThenCommit(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)

	require.NoError(t, s.Validate(managerOID, mib.Text("Ops"), policy.ReadWrite))
	require.NoError(t, s.Commit(ctx, managerOID, mib.Text("Ops")))

	v, ok := s.ReadExact(managerOID)
	require.True(t, ok)
	assert.Equal(t, mib.Text("Ops"), v)
	assert.Equal(t, int64(1), s.Seq())
}

func TestCommit_RejectsUnvalidated(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)

	assert.ErrorIs(t, s.Commit(ctx, mib.OID{9}, mib.Text("x")), ErrUnknownObject)
	assert.ErrorIs(t, s.Commit(ctx, thresholdOID, mib.Integer(1000)), mib.WrongValue)
	assert.Equal(t, int64(0), s.Seq())
}

func TestApply_ManagerAndGauge(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)

	out, err := s.Apply(ctx, []Binding{{OID: managerOID, Value: mib.Text("Ops")}}, policy.ReadWrite)
	require.NoError(t, err)
	assert.Equal(t, []Binding{{OID: managerOID, Value: mib.Text("Ops")}}, out)

	v, _ := s.ReadExact(managerOID)
	assert.Equal(t, mib.Text("Ops"), v)

	for _, c := range []policy.Capability{policy.ReadWrite, policy.ReadOnly} {
		_, err = s.Apply(ctx, []Binding{{OID: cpuUsageOID, Value: mib.Integer(50)}}, c)
		var te *TxError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 1, te.Index)
		assert.Equal(t, mib.NotWritable, te.Kind)
	}
}

func TestApply_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)
	before := s.Snapshot()

	_, err := s.Apply(ctx, []Binding{
		{OID: managerOID, Value: mib.Text("Ops")},
		{OID: thresholdOID, Value: mib.Integer(50)},
		{OID: emailOID, Value: mib.Text("x")}, // too short
		{OID: cpuUsageOID, Value: mib.Integer(1)},
	}, policy.ReadWrite)

	var te *TxError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 3, te.Index, "first failing binding, 1-based")
	assert.Equal(t, mib.WrongValue, te.Kind)
	assert.Equal(t, emailOID, te.OID)
	assert.ErrorIs(t, err, mib.WrongValue)

	assert.Equal(t, before, s.Snapshot(), "no binding may be applied")
	assert.Equal(t, int64(0), s.Seq())
}

func TestApply_ReturnsPostCommitValues(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)

	out, err := s.Apply(ctx, []Binding{
		{OID: thresholdOID, Value: mib.Integer(10)},
		{OID: managerOID, Value: mib.Text("équipe")},
		{OID: thresholdOID, Value: mib.Integer(20)},
	}, policy.ReadWrite)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, mib.Integer(20), out[0].Value, "duplicate OIDs: last write wins")
	assert.Equal(t, mib.Text("équipe"), out[1].Value, "text is stored as given")
	assert.Equal(t, mib.Integer(20), out[2].Value)
	assert.Equal(t, int64(1), s.Seq(), "one transaction, one commit")
}

func TestApply_TextKeepsCodePoints(t *testing.T) {
	ctx := context.Background()
	s, path := createTestStore(t)

	decomposed := mib.Text("Jose\u0301")
	out, err := s.Apply(ctx, []Binding{{OID: managerOID, Value: decomposed}}, policy.ReadWrite)
	require.NoError(t, err)
	assert.Equal(t, decomposed, out[0].Value)

	v, _ := s.ReadExact(managerOID)
	assert.Equal(t, decomposed, v)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	v, _ = reopened.ReadExact(managerOID)
	assert.Equal(t, decomposed, v, "the stored bytes survive a restart")

	// 40 decomposed letters are 80 code points, over manager's 64
	long := mib.Text(strings.Repeat("e\u0301", 40))
	assert.ErrorIs(t, reopened.Validate(managerOID, long, policy.ReadWrite), mib.WrongValue)
}

func TestApply_Empty(t *testing.T) {
	s, _ := createTestStore(t)

	out, err := s.Apply(context.Background(), nil, policy.ReadWrite)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int64(0), s.Seq())
}

func TestApply_PersistenceFailureLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)
	before := s.Snapshot()

	require.NoError(t, s.db.Close())

	_, err := s.Apply(ctx, []Binding{{OID: managerOID, Value: mib.Text("Ops")}}, policy.ReadWrite)
	require.Error(t, err)
	assert.True(t, IsPersistenceFailure(err))

	var te *TxError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.Index, "request-level failure carries no binding index")
	assert.Equal(t, before, s.Snapshot())

	err = s.Commit(ctx, managerOID, mib.Text("Ops"))
	assert.True(t, IsPersistenceFailure(err))
	err = s.SetPrivileged(ctx, "cpuUsage", mib.Integer(5))
	assert.True(t, IsPersistenceFailure(err))
	assert.Equal(t, before, s.Snapshot())
}

func TestSetPrivileged(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)

	require.NoError(t, s.SetPrivileged(ctx, "cpuUsage", mib.Integer(73)))
	v, _ := s.ReadExact(cpuUsageOID)
	assert.Equal(t, mib.Integer(73), v, "read-only objects are writable through the privileged path")

	assert.ErrorIs(t, s.SetPrivileged(ctx, "cpuUsage", mib.Integer(101)), mib.WrongValue)
	assert.ErrorIs(t, s.SetPrivileged(ctx, "cpuUsage", mib.Text("1")), mib.WrongType)
	assert.ErrorIs(t, s.SetPrivileged(ctx, "bogus", mib.Integer(1)), ErrUnknownObject)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	ctx := context.Background()
	s, _ := createTestStore(t)

	const writers = 8
	const rounds = 20

	_, err := s.Apply(ctx, []Binding{
		{OID: managerOID, Value: mib.Text("0")},
		{OID: thresholdOID, Value: mib.Integer(0)},
	}, policy.ReadWrite)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, writers*rounds)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				// manager and threshold always move together
				n := int64(w*rounds + i)
				_, err := s.Apply(ctx, []Binding{
					{OID: managerOID, Value: mib.Text(mib.Integer(n % 100).String())},
					{OID: thresholdOID, Value: mib.Integer(n % 100)},
				}, policy.ReadWrite)
				if err != nil {
					errs <- err
				}
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := s.SetPrivileged(ctx, "cpuUsage", mib.Integer(int64(i%101))); err != nil {
				errs <- err
			}
		}
	}()

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := s.Snapshot()
			if snap["manager"].String() != snap["cpuThreshold"].String() {
				errs <- errors.New("observed a partially applied transaction")
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, int64(1+writers*rounds+200), s.Seq())
}
