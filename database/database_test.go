package database

import (
	"context"
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/object"
)

func newTestDB(t *testing.T, mods ...func(*Config)) *Database {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Name = "test-" + t.Name()
	cfg.StorageType = "hashmap"
	for _, mod := range mods {
		mod(&cfg)
	}

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func save(t *testing.T, db *Database, keysAndValues ...string) uint64 {
	t.Helper()

	id, err := db.Save(context.Background(), object.New(keysAndValues...))
	require.NoError(t, err)
	return id
}

func spec(class, key string) object.Spec {
	return object.Spec{Class: class, Key: key}
}

func testDatabase(t *testing.T, storageType string) {
	t.Helper()

	ctx := context.Background()
	db := newTestDB(t, func(cfg *Config) {
		cfg.StorageType = storageType
		cfg.Location = filepath.Join(t.TempDir(), storageType)
	})

	id := save(t, db,
		"route", "10.1.0.0/16",
		"origin", "AS64500",
		"mnt-by", "FOO-MNT",
	)
	save(t, db, "route", "10.0.0.0/8", "origin", "AS64501")
	save(t, db, "as-block", "AS64496 - AS64511")
	save(t, db, "domain", "example.com")

	obj, err := db.Fetch(ctx, "ROUTE", "10.1.0.0/16")
	require.NoError(t, err)
	assert.Equal(t, id, obj.ID)
	assert.Equal(t, "FOO-MNT", obj.GetAll("mnt-by")[0])

	specs, err := db.LookupRoute(ctx, "10.1.2.3", 0)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("route", "10.1.0.0/16"), spec("route", "10.0.0.0/8")}, specs)

	specs, err = db.LookupASBlock(ctx, 64500)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("as-block", "as64496 - as64511")}, specs)

	specs, err = db.LookupDomain(ctx, "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("domain", "example.com")}, specs)

	objs, err := db.SearchInverse(ctx, []string{"mnt-by"}, []string{"foo-mnt"}, nil)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, id, objs[0].ID)

	require.NoError(t, db.Delete(ctx, object.New("route", "10.1.0.0/16")))
	_, err = db.Fetch(ctx, "route", "10.1.0.0/16")
	assert.ErrorIs(t, err, ErrNotFound)
	specs, err = db.LookupRoute(ctx, "10.1.2.3", 0)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("route", "10.0.0.0/8")}, specs)
}

func TestDatabase(t *testing.T) {
	t.Parallel()

	for _, storageType := range []string{"hashmap", "bbolt", "badger", "leveldb"} {
		storageType := storageType
		t.Run(storageType, func(t *testing.T) {
			t.Parallel()
			testDatabase(t, storageType)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	in := object.New(
		"person", "John Doe",
		"nic-hdl", "JD1-TEST",
		"remarks", "Mixed Case Value",
		"remarks", "second remarks line",
		"mnt-by", "FOO-MNT",
	)
	id, err := db.Save(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, id)

	out, err := db.Fetch(ctx, "Person", "john doe")
	require.NoError(t, err)
	assert.Equal(t, in.Fields, out.Fields)
	assert.Equal(t, id, out.ID)
	assert.Equal(t, db.Name(), out.Source)
	assert.False(t, out.Created.IsZero())
	assert.False(t, out.LastModified.IsZero())

	byID, err := db.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, out.Fields, byID.Fields)

	_, err = db.FetchByID(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.Fetch(ctx, "person", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdempotentSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	obj := object.New("mntner", "FOO-MNT", "auth", "pgp-key-ABCD", "mnt-by", "FOO-MNT")
	first, err := db.Save(ctx, obj)
	require.NoError(t, err)
	before, err := db.Fetch(ctx, "mntner", "FOO-MNT")
	require.NoError(t, err)

	second, err := db.Save(ctx, obj)
	require.NoError(t, err)
	after, err := db.Fetch(ctx, "mntner", "FOO-MNT")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before.Fields, after.Fields)
	assert.Equal(t, before.Created, after.Created)

	ids, err := db.AllIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{first}, ids)

	objs, err := db.SearchInverse(ctx, []string{"auth"}, []string{"PGP-KEY-ABCD"}, nil)
	require.NoError(t, err)
	assert.Len(t, objs, 1, "inverse rows must not be duplicated")
}

func TestSaveReportsUnreadableRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	id := save(t, db, "person", "Broken Row")

	tx, err := db.storage.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put(objectKey(id), []byte("garbage")))
	require.NoError(t, tx.Commit())

	_, err = db.Save(ctx, object.New("person", "Broken Row", "remarks", "update"))
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestCaseInsensitiveIdentity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	first := save(t, db, "Route", "10.0.0.0/8", "origin", "AS1")
	second := save(t, db, "route", "10.0.0.0/8", "origin", "AS1", "descr", "updated")
	assert.Equal(t, first, second)

	specs, err := db.Lookup(ctx, []string{"route"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("route", "10.0.0.0/8")}, specs)

	obj, err := db.Fetch(ctx, "ROUTE", "10.0.0.0/8")
	require.NoError(t, err)
	assert.Equal(t, "route", obj.Class(), "lines are replaced wholesale")
	value, _ := obj.Get("descr")
	assert.Equal(t, "updated", value)
}

func TestMetadataFolding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t, func(cfg *Config) {
		cfg.Name = "local"
	})

	// Local objects are stamped and lose their last-modified lines.
	_, err := db.Save(ctx, object.New(
		"person", "Local Person",
		"last-modified", "2001-01-01T00:00:00Z",
		"source", "LOCAL",
	))
	require.NoError(t, err)
	local, err := db.Fetch(ctx, "person", "Local Person")
	require.NoError(t, err)
	assert.Equal(t, "local", local.Source)
	_, ok := local.Get("last-modified")
	assert.False(t, ok)
	assert.WithinDuration(t, time.Now(), local.LastModified, time.Minute)

	// Foreign objects keep their metadata.
	foreign := object.New(
		"person", "Foreign Person",
		"created", "1999-01-01T00:00:00Z",
		"last-modified", "2001-01-01T00:00:00Z",
		"source", "OTHER",
	)
	_, err = db.Save(ctx, foreign)
	require.NoError(t, err)
	stored, err := db.Fetch(ctx, "person", "foreign person")
	require.NoError(t, err)
	assert.Equal(t, "OTHER", stored.Source)
	assert.Equal(t, foreign.Fields, stored.Fields)
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), stored.LastModified.UTC())
	assert.Equal(t, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), stored.Created.UTC())

	// The creation time survives updates that do not carry one.
	_, err = db.Save(ctx, object.New("person", "Foreign Person", "source", "OTHER"))
	require.NoError(t, err)
	stored, err = db.Fetch(ctx, "person", "foreign person")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), stored.Created.UTC())
}

func TestLongestPrefixMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	save(t, db, "route", "10.0.0.0/8", "origin", "AS64500")
	save(t, db, "route", "10.1.0.0/16", "origin", "AS64500")
	save(t, db, "route6", "2001:db8::/32", "origin", "AS64500")
	save(t, db, "route", "10.2.0.0/16", "origin", "AS64500")

	specs, err := db.LookupRoute(ctx, "10.1.2.3", 0)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{
		spec("route", "10.1.0.0/16"),
		spec("route", "10.0.0.0/8"),
	}, specs)

	specs, err = db.LookupRoute(ctx, "10.1.2.3", 1)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("route", "10.1.0.0/16")}, specs)

	specs, err = db.LookupRoute(ctx, "10.0.0.0/8", 0)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("route", "10.0.0.0/8")}, specs)

	specs, err = db.LookupRoute(ctx, "2001:db8::1", 0)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("route6", "2001:db8::/32")}, specs)

	specs, err = db.LookupRoute(ctx, "192.0.2.1", 0)
	require.NoError(t, err)
	assert.Empty(t, specs)

	_, err = db.LookupRoute(ctx, "not an address", 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestRouteOriginTiebreak(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t, func(cfg *Config) {
		cfg.Model = multiOriginModel{}
	})

	save(t, db, "route", "10.0.0.0/8 AS2", "origin", "AS2")
	save(t, db, "route", "10.0.0.0/8 AS1", "origin", "AS1")

	specs, err := db.LookupRoute(ctx, "10.0.0.1", 0)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{
		spec("route", "10.0.0.0/8 as1"),
		spec("route", "10.0.0.0/8 as2"),
	}, specs)
}

// multiOriginModel keys routes by network and origin.
type multiOriginModel struct {
	object.NicModel
}

func (m multiOriginModel) IPNetwork(obj *object.Object) (netip.Prefix, error) {
	return object.ParseNetwork(strings.Fields(obj.Key())[0])
}

func TestLookupInetnum(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	save(t, db, "inetnum", "10.0.0.0 - 10.255.255.255")
	save(t, db, "inetnum", "10.1.0.0 - 10.1.255.255")
	save(t, db, "inetnum", "10.1.2.0 - 10.1.2.255")
	save(t, db, "inetnum", "10.1.3.0 - 10.1.3.255")
	save(t, db, "inet6num", "2001:db8::/32")

	n8 := spec("inetnum", "10.0.0.0 - 10.255.255.255")
	n16 := spec("inetnum", "10.1.0.0 - 10.1.255.255")
	n24a := spec("inetnum", "10.1.2.0 - 10.1.2.255")
	n24b := spec("inetnum", "10.1.3.0 - 10.1.3.255")

	tests := []struct {
		address  string
		relation Relation
		order    Order
		limit    int
		want     []object.Spec
	}{
		{"10.1.2.3", SupersetOrEqual, Descending, 0, []object.Spec{n24a, n16, n8}},
		{"10.1.2.3", SupersetOrEqual, Ascending, 0, []object.Spec{n8, n16, n24a}},
		{"10.1.2.3", SupersetOrEqual, Descending, 1, []object.Spec{n24a}},
		{"10.1.0.0/16", StrictSuperset, Descending, 0, []object.Spec{n8}},
		{"10.1.0.0/16", SupersetOrEqual, Descending, 0, []object.Spec{n16, n8}},
		{"10.1.0.0/16", StrictSubset, Ascending, 0, []object.Spec{n24a, n24b}},
		{"10.1.0.0/16", SubsetOrEqual, Ascending, 0, []object.Spec{n16, n24a, n24b}},
		{"10.0.0.0/8", StrictSubset, Descending, 0, []object.Spec{n24a, n24b, n16}},
		{"10.0.0.0/8", StrictSubset, Descending, 2, []object.Spec{n24a, n24b}},
		{"2001:db8:1::/48", StrictSuperset, Ascending, 0, []object.Spec{spec("inet6num", "2001:db8::/32")}},
		{"192.0.2.0/24", SubsetOrEqual, Ascending, 0, nil},
	}
	for _, tt := range tests {
		specs, err := db.LookupInetnum(ctx, tt.address, tt.relation, tt.order, tt.limit)
		require.NoError(t, err)
		if tt.want == nil {
			assert.Empty(t, specs)
			continue
		}
		assert.Equal(t, tt.want, specs, fmt.Sprintf("%s %s %s", tt.relation, tt.address, tt.order))
	}

	_, err := db.LookupInetnum(ctx, "10.0.0.0/8", Relation(0), Ascending, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = db.LookupInetnum(ctx, "10.0.0.0/8", StrictSubset, Order(7), 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.True(t, IsValidation(err))
}

func TestParseRelationAndOrder(t *testing.T) {
	t.Parallel()

	for _, rel := range []Relation{StrictSuperset, StrictSubset, SupersetOrEqual, SubsetOrEqual} {
		parsed, err := ParseRelation(rel.String())
		require.NoError(t, err)
		assert.Equal(t, rel, parsed)
	}
	_, err := ParseRelation("><")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	order, err := ParseOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, order)
	_, err = ParseOrder("up")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestASBlockContainment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	save(t, db, "as-block", "AS150 - AS160")
	save(t, db, "as-block", "AS100 - AS200")
	save(t, db, "as-block", "AS300 - AS400")

	specs, err := db.LookupASBlock(ctx, 155)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{
		spec("as-block", "as100 - as200"),
		spec("as-block", "as150 - as160"),
	}, specs, "widest block first")

	specs, err = db.LookupASBlock(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("as-block", "as100 - as200")}, specs)

	specs, err = db.LookupASBlock(ctx, 250)
	require.NoError(t, err)
	assert.Empty(t, specs)

	_, err = db.Save(ctx, object.New("as-block", "AS10 - AS5"))
	assert.ErrorIs(t, err, ErrInvalidObject)
}

func TestInverseIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	jd := save(t, db, "person", "John Doe", "nic-hdl", "JD1-TEST")
	r1 := save(t, db, "route", "10.0.0.0/8", "origin", "AS1", "admin-c", "JD1-TEST # John", "tech-c", "XY1-TEST")
	r2 := save(t, db, "route", "10.1.0.0/16", "origin", "AS1", "tech-c", "AB1-TEST", "admin-c", "jd1-test")
	save(t, db, "person", "Other", "remarks", "JD1-TEST")

	objs, err := db.SearchInverse(ctx, []string{"admin-c"}, []string{"JD1-TEST"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{r1, r2}, ids(objs))

	objs, err = db.SearchInverse(ctx, []string{"admin-c", "tech-c"}, []string{"xy1-test", "ab1-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{r2, r1}, ids(objs), "ordered by matched value")

	objs, err = db.SearchInverse(ctx, []string{"admin-c"}, []string{"jd1-test"}, []string{"person"})
	require.NoError(t, err)
	assert.Empty(t, objs)

	objs, err = db.SearchInverse(ctx, []string{"remarks"}, []string{"jd1-test"}, nil)
	require.NoError(t, err)
	assert.Empty(t, objs, "remarks is not an inverse key")

	// Resaving replaces the inverse rows.
	save(t, db, "route", "10.0.0.0/8", "origin", "AS1")
	objs, err = db.SearchInverse(ctx, []string{"admin-c"}, []string{"jd1-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{r2}, ids(objs))
	assert.NotZero(t, jd)
}

func TestIPAMInverseKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t, func(cfg *Config) {
		cfg.InverseKeys = object.IPAMInverseKeys()
		cfg.Classes = nil
	})

	id := save(t, db, "host", "srv1", "hostname", "SRV1.example.com", "vlan-id", "42")
	objs, err := db.SearchInverse(ctx, []string{"vlan-id"}, []string{"42"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{id}, ids(objs))
}

func ids(objs []*object.Object) []uint64 {
	result := make([]uint64, 0, len(objs))
	for _, obj := range objs {
		result = append(result, obj.ID)
	}
	return result
}

func TestCascadingDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	save(t, db, "route", "10.0.0.0/8", "origin", "AS1", "mnt-by", "FOO-MNT")
	save(t, db, "inetnum", "10.0.0.0/8", "admin-c", "JD1-TEST")
	save(t, db, "as-block", "AS1 - AS10", "mnt-by", "FOO-MNT")
	save(t, db, "domain", "example.com", "nserver", "ns1.example.com")

	for _, obj := range []*object.Object{
		object.New("route", "10.0.0.0/8"),
		object.New("inetnum", "10.0.0.0/8"),
		object.New("as-block", "AS1 - AS10"),
		object.New("domain", "EXAMPLE.com"),
	} {
		require.NoError(t, db.Delete(ctx, obj))
		_, err := db.Fetch(ctx, obj.Class(), obj.Key())
		assert.ErrorIs(t, err, ErrNotFound)
	}

	err := db.Delete(ctx, object.New("route", "10.0.0.0/8"))
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the schema version and the id sequence remain.
	tx, err := db.storage.Begin(false)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	err = tx.Scan(nil, nil, func(key, _ []byte) error {
		assert.Contains(t, []byte{tableVersion, tableSequence}, key[0], "leftover row %q", key)
		return nil
	})
	require.NoError(t, err)
}

func TestDomainSuffix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	save(t, db, "domain", "example.com")
	save(t, db, "domain", "com")
	save(t, db, "domain", "sub.example.com")
	save(t, db, "domain", "other.com")

	specs, err := db.LookupDomain(ctx, "host.sub.example.com")
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{
		spec("domain", "com"),
		spec("domain", "example.com"),
		spec("domain", "sub.example.com"),
	}, specs)

	specs, err = db.LookupDomain(ctx, "SUB.Example.COM.")
	require.NoError(t, err)
	assert.Len(t, specs, 3)

	specs, err = db.LookupDomain(ctx, "example.org")
	require.NoError(t, err)
	assert.Empty(t, specs)

	_, err = db.LookupDomain(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestDomainEscapedLabels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	save(t, db, "domain", `a\.b.example.com`)
	save(t, db, "domain", "b.example.com")

	specs, err := db.LookupDomain(ctx, `host.a\.b.example.com`)
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("domain", `a\.b.example.com`)}, specs)

	specs, err = db.LookupDomain(ctx, "host.a.b.example.com")
	require.NoError(t, err)
	assert.Equal(t, []object.Spec{spec("domain", "b.example.com")}, specs)

	assert.NotEqual(t, domainKey(reverseDomain(`a\.b.example.com`)), domainKey(reverseDomain("a.b.example.com")))
	assert.Equal(t, "sub.example.com", describeKey(domainKey(reverseDomain("sub.example.com"))))
	assert.Equal(t, `a\.b.example.com`, describeKey(domainKey(reverseDomain(`a\.b.example.com`))))
}
