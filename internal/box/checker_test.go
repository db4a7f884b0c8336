package box

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicabarNimble/punica-box/internal/errors"
	"github.com/NicabarNimble/punica-box/internal/github"
	"github.com/NicabarNimble/punica-box/internal/urlutils"
)

type fakeProber struct {
	exists bool
	err    error
	calls  []string
}

func (f *fakeProber) RepositoryExists(_ context.Context, repoURL string) (bool, error) {
	f.calls = append(f.calls, repoURL)
	return f.exists, f.err
}

func TestCheckerCheck(t *testing.T) {
	networkErr := errors.NewBoxError(errors.KindNetwork, "probe", "check your network.", fmt.Errorf("dial tcp: refused"))

	tests := []struct {
		name       string
		setup      func(afero.Fs)
		boxName    string
		prober     *fakeProber
		wantURL    string
		wantKind   errors.Kind
		wantProbes int
	}{
		{
			name:       "missing target is created",
			boxName:    "tutorial",
			prober:     &fakeProber{exists: true},
			wantURL:    "https://github.com/punica-box/tutorial-box.git",
			wantProbes: 1,
		},
		{
			name: "existing empty target",
			setup: func(fs afero.Fs) {
				_ = fs.MkdirAll("/work/proj", 0755)
			},
			boxName:    "owner/repo",
			prober:     &fakeProber{exists: true},
			wantURL:    "https://github.com/owner/repo.git",
			wantProbes: 1,
		},
		{
			name: "non-empty target never probes",
			setup: func(fs afero.Fs) {
				_ = afero.WriteFile(fs, "/work/proj/README.md", []byte("hi"), 0644)
			},
			boxName:  "tutorial",
			prober:   &fakeProber{exists: true},
			wantKind: errors.KindTargetNotEmpty,
		},
		{
			name:     "invalid box name",
			boxName:  "bad name!",
			prober:   &fakeProber{exists: true},
			wantKind: errors.KindInvalidBoxName,
		},
		{
			name:       "box not found",
			boxName:    "nonexistent",
			prober:     &fakeProber{exists: false},
			wantKind:   errors.KindBoxNotFound,
			wantProbes: 1,
		},
		{
			name:       "probe network error is not reported as not found",
			boxName:    "tutorial",
			prober:     &fakeProber{err: networkErr},
			wantKind:   errors.KindNetwork,
			wantProbes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.setup != nil {
				tt.setup(fs)
			}
			checker := NewChecker(fs, urlutils.DefaultResolver, tt.prober)

			url, err := checker.Check(context.Background(), "/work/proj", tt.boxName)
			assert.Len(t, tt.prober.calls, tt.wantProbes)

			if tt.wantKind != errors.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, errors.KindOf(err))
				assert.Empty(t, url)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
			assert.Equal(t, []string{tt.wantURL}, tt.prober.calls)

			isDir, err := afero.DirExists(fs, "/work/proj")
			require.NoError(t, err)
			assert.True(t, isDir)
		})
	}
}

func TestCheckerInvalidNameTouchesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	checker := NewChecker(fs, urlutils.DefaultResolver, &fakeProber{exists: true})

	_, err := checker.Check(context.Background(), "/work/new", "a/b/c")
	assert.ErrorIs(t, err, errors.ErrInvalidBoxName)

	exists, err := afero.Exists(fs, "/work/new")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckerTargetIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/proj", []byte("x"), 0644))
	prober := &fakeProber{exists: true}
	checker := NewChecker(fs, urlutils.DefaultResolver, prober)

	_, err := checker.Check(context.Background(), "/work/proj", "tutorial")
	require.Error(t, err)

	var opErr *errors.OperationError
	assert.ErrorAs(t, err, &opErr)
	assert.Equal(t, "check", opErr.Op)
	assert.Empty(t, prober.calls)
}

func TestCheckerWithGitHubClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resolver := urlutils.Resolver{Host: server.URL, Org: "punica-box"}
	client := github.NewClient("punica-box")

	t.Run("non-empty target makes no request", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/proj/file.txt", []byte("x"), 0644))

		_, err := NewChecker(fs, resolver, client).Check(context.Background(), "/proj", "tutorial")
		assert.ErrorIs(t, err, errors.ErrTargetNotEmpty)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("existing box", func(t *testing.T) {
		url, err := NewChecker(afero.NewMemMapFs(), resolver, client).Check(context.Background(), "/proj", "tutorial")
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/punica-box/tutorial-box.git", url)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("missing box", func(t *testing.T) {
		_, err := NewChecker(afero.NewMemMapFs(), resolver, client).Check(context.Background(), "/proj", "missing")
		assert.ErrorIs(t, err, errors.ErrBoxNotFound)
	})
}
