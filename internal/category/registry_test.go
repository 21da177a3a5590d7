package category

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/heapoverflow/internal/audit"
	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/internal/sqlite"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

const guildID = snowflake.ID(1)

var staff = platform.Member{UserID: 99, GuildID: guildID, Username: "mod", IsStaff: true}

type fixture struct {
	store    *sqlite.Backend
	audit    *audit.Recorder
	clock    *clock.Fake
	registry *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &audit.Recorder{}
	clk := clock.NewFake(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	return &fixture{
		store:    store,
		audit:    rec,
		clock:    clk,
		registry: New(store, rec, clk, zerolog.Nop()),
	}
}

func (f *fixture) create(t *testing.T, name, description string) *types.Category {
	t.Helper()
	c, err := f.registry.CreateCategory(context.Background(), guildID, staff, name, description)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return c
}

func TestCreateCategory(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, f *fixture)
		input       string
		description string
		wantErr     error
		check       func(t *testing.T, f *fixture, c *types.Category)
	}{
		{
			name:        "normalizes name and blank description",
			input:       "homework help",
			description: "   ",
			check: func(t *testing.T, f *fixture, c *types.Category) {
				got, ok := f.registry.CategoryByID(guildID, c.ID)
				require.True(t, ok)
				assert.Equal(t, "Homework Help", got.Name)
				assert.Empty(t, got.Description)

				stored, err := f.store.Categories().Get(context.Background(), c.ID)
				require.NoError(t, err)
				assert.Equal(t, "Homework Help", stored.Name)
				assert.Equal(t, guildID, stored.GuildID)
			},
		},
		{
			name:        "emits an audit record",
			input:       "go",
			description: "Gophers welcome",
			check: func(t *testing.T, f *fixture, c *types.Category) {
				require.Len(t, f.audit.Records, 1)
				r := f.audit.Records[0]
				assert.Equal(t, "Help Category Created", r.Title)
				assert.Contains(t, r.Description, "`Go`")
				assert.Contains(t, r.Description, c.ID.String())
				assert.Contains(t, r.Description, "<@99>")
				assert.Equal(t, platform.ColorGreen, r.Color)
			},
		},
		{
			name:    "blank name fails",
			input:   "   ",
			wantErr: types.ErrInvalidName,
		},
		{
			name: "duplicate name fails ignoring case",
			setup: func(t *testing.T, f *fixture) {
				f.create(t, "Syntax", "")
			},
			input:   "syntax",
			wantErr: types.ErrDuplicateName,
		},
		{
			name: "duplicate from store is caught before warm-up",
			setup: func(t *testing.T, f *fixture) {
				other := New(f.store, nil, f.clock, zerolog.Nop())
				_, err := other.CreateCategory(context.Background(), guildID, staff, "Syntax", "")
				require.NoError(t, err)
			},
			input:   "SYNTAX",
			wantErr: types.ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			before := len(f.registry.Categories(guildID))

			c, err := f.registry.CreateCategory(context.Background(), guildID, staff, tt.input, tt.description)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, f.registry.Categories(guildID), before, "nothing added on error")
				return
			}
			require.NoError(t, err)
			tt.check(t, f, c)
		})
	}
}

func TestCategoriesOrderAndIsolation(t *testing.T) {
	f := newFixture(t)
	f.create(t, "zig", "")
	f.create(t, "ada", "")
	f.create(t, "go", "")

	var names []string
	for _, c := range f.registry.Categories(guildID) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Zig", "Ada", "Go"}, names, "insertion order")

	assert.Empty(t, f.registry.Categories(snowflake.ID(404)))
	assert.NotNil(t, f.registry.Categories(snowflake.ID(404)))

	list := f.registry.Categories(guildID)
	list[0].Name = "mutated"
	again, _ := f.registry.CategoryByName(guildID, "zig")
	assert.Equal(t, "Zig", again.Name, "callers get copies")
}

func TestLookup(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "web dev", "")

	tests := []struct {
		name   string
		ref    string
		wantOK bool
	}{
		{name: "by id", ref: c.ID.String(), wantOK: true},
		{name: "by name", ref: "WEB DEV", wantOK: true},
		{name: "by unnormalized name", ref: "web-dev", wantOK: true},
		{name: "blank", ref: "  ", wantOK: false},
		{name: "unknown id", ref: uuid.Must(uuid.NewV7()).String(), wantOK: false},
		{name: "unknown name", ref: "cooking", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.registry.Lookup(guildID, tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, c.ID, got.ID)
			}
		})
	}

	_, ok := f.registry.CategoryByName(guildID, "")
	assert.False(t, ok)
	_, ok = f.registry.CategoryByID(snowflake.ID(2), c.ID)
	assert.False(t, ok, "other guilds do not see the category")
}

func TestModifyCategory(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *types.Category)
		wantErr error
		check   func(t *testing.T, f *fixture, c *types.Category)
	}{
		{
			name:   "rename normalizes and audits",
			mutate: func(c *types.Category) { c.Name = "async rust" },
			check: func(t *testing.T, f *fixture, c *types.Category) {
				assert.Equal(t, "Async Rust", c.Name, "caller's value is updated")

				got, ok := f.registry.CategoryByID(guildID, c.ID)
				require.True(t, ok)
				assert.Equal(t, "Async Rust", got.Name)

				r := f.audit.Records[len(f.audit.Records)-1]
				assert.Equal(t, "Help Category Modified", r.Title)
				assert.Equal(t, []platform.EmbedField{
					{Name: "Old Name", Value: "Rust", Inline: true},
					{Name: "New Name", Value: "Async Rust", Inline: true},
					{Name: "Old Description", Value: "<none>"},
					{Name: "New Description", Value: "<none>"},
				}, r.Fields)
			},
		},
		{
			name:   "set description persists",
			mutate: func(c *types.Category) { c.Description = "  Ownership and lifetimes " },
			check: func(t *testing.T, f *fixture, c *types.Category) {
				stored, err := f.store.Categories().Get(context.Background(), c.ID)
				require.NoError(t, err)
				assert.Equal(t, "Ownership and lifetimes", stored.Description)
			},
		},
		{
			name: "identity fields are preserved",
			mutate: func(c *types.Category) {
				c.ID = uuid.Nil
				c.GuildID = 77
			},
			check: func(t *testing.T, f *fixture, c *types.Category) {
				assert.NotEqual(t, uuid.Nil, c.ID)
				assert.Equal(t, guildID, c.GuildID)
			},
		},
		{
			name:    "rename onto an existing name fails",
			mutate:  func(c *types.Category) { c.Name = "go" },
			wantErr: types.ErrDuplicateName,
		},
		{
			name:    "blank name fails",
			mutate:  func(c *types.Category) { c.Name = "" },
			wantErr: types.ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.create(t, "go", "")
			c := f.create(t, "rust", "")

			err := f.registry.ModifyCategory(context.Background(), c, tt.mutate, staff)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				got, _ := f.registry.CategoryByID(guildID, c.ID)
				assert.Equal(t, "Rust", got.Name, "unchanged on error")
				return
			}
			require.NoError(t, err)
			tt.check(t, f, c)
		})
	}
}

func TestModifyCategoryUsesStoredVersion(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "rust", "original")
	stale := *c
	stale.Description = "stale snapshot"

	err := f.registry.ModifyCategory(context.Background(), &stale, func(c *types.Category) {
		c.Name = "Rust Lang"
	}, staff)
	require.NoError(t, err)

	assert.Equal(t, "original", stale.Description, "mutation applies to the stored version")
}

func TestModifyMissingCategory(t *testing.T) {
	f := newFixture(t)
	ghost := &types.Category{ID: uuid.Must(uuid.NewV7()), GuildID: guildID, Name: "Ghost"}

	err := f.registry.ModifyCategory(context.Background(), ghost, func(*types.Category) {}, staff)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "go", "")

	require.NoError(t, f.registry.DeleteCategory(ctx, c, staff))

	_, ok := f.registry.CategoryByID(guildID, c.ID)
	assert.False(t, ok)
	_, err := f.store.Categories().Get(ctx, c.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	r := f.audit.Records[len(f.audit.Records)-1]
	assert.Equal(t, "Help Category Deleted", r.Title)
	assert.Equal(t, platform.ColorRed, r.Color)
}

// failingDeletes is a store whose category deletes fail with err.
type failingDeletes struct {
	types.Store
	err error
}

func (s failingDeletes) Categories() types.CategoryTable {
	return failingCategoryDeletes{CategoryTable: s.Store.Categories(), err: s.err}
}

type failingCategoryDeletes struct {
	types.CategoryTable
	err error
}

func (t failingCategoryDeletes) Delete(context.Context, uuid.UUID) error { return t.err }

func TestDeleteCategoryStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "go", "")

	diskErr := errors.New("disk I/O error")
	r := New(failingDeletes{Store: f.store, err: diskErr}, f.audit, f.clock, zerolog.Nop())
	require.NoError(t, r.LoadGuild(ctx, guildID))
	records := len(f.audit.Records)

	err := r.DeleteCategory(ctx, c, staff)
	assert.ErrorIs(t, err, diskErr)

	_, ok := r.CategoryByID(guildID, c.ID)
	assert.True(t, ok, "category stays listed while it is still stored")
	_, err = f.store.Categories().Get(ctx, c.ID)
	assert.NoError(t, err)
	assert.Len(t, f.audit.Records, records, "failed deletes are not audited")
}

func TestDeleteCategoryInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "go", "")

	q := &types.Question{
		ID:         uuid.Must(uuid.NewV7()),
		GuildID:    guildID,
		CategoryID: c.ID,
		AuthorID:   5,
		Title:      "Open question",
		ThreadID:   600,
		CreatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.store.Questions().Set(ctx, q))

	assert.ErrorIs(t, f.registry.DeleteCategory(ctx, c, staff), types.ErrCategoryInUse)
	_, ok := f.registry.CategoryByID(guildID, c.ID)
	assert.True(t, ok, "category kept")

	require.NoError(t, q.Close(types.CloseReasonResolved, 5, f.clock.Now()))
	require.NoError(t, f.store.Questions().Set(ctx, q))
	assert.NoError(t, f.registry.DeleteCategory(ctx, c, staff), "closed questions do not block deletion")
}

func TestLoadGuildReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "go", "")
	f.create(t, "rust", "")

	other, err := New(f.store, nil, f.clock, zerolog.Nop()).CreateCategory(ctx, snowflake.ID(2), staff, "cooking", "")
	require.NoError(t, err)

	fresh := New(f.store, nil, f.clock, zerolog.Nop())
	require.NoError(t, fresh.LoadGuild(ctx, guildID))
	require.NoError(t, fresh.LoadGuild(ctx, guildID))

	var names []string
	for _, c := range fresh.Categories(guildID) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Go", "Rust"}, names, "reloading does not duplicate and ignores other guilds")
	_, ok := fresh.CategoryByID(guildID, other.ID)
	assert.False(t, ok)
}

func TestConcurrentCreateSameName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.registry.CreateCategory(ctx, guildID, staff, "race", ""); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, f.registry.Categories(guildID), 1)
}
