//go:build integration

package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"discovery/internal/policy"
	"discovery/internal/policy/store"
	"discovery/pkg/platform/sentinel"
	"discovery/pkg/testutil/containers"
)

type PostgresSourceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	src      *store.PostgresSource
}

func TestPostgresSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSourceSuite))
}

func (s *PostgresSourceSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.src = store.NewPostgresSource(s.postgres.DB)
	s.Require().NoError(s.src.Migrate(context.Background()))
}

func (s *PostgresSourceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), store.Tables...))
}

func (s *PostgresSourceSuite) TestPublishThenLoadBuildsSameSnapshot() {
	ctx := context.Background()
	doc, err := store.NewFileSource(filepath.Join("testdata", "policy.yaml")).Load(ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.src.Publish(ctx, doc))

	got, err := s.src.Load(ctx)
	s.Require().NoError(err)

	want, err := policy.NewSnapshot(doc)
	s.Require().NoError(err)
	snap, err := policy.NewSnapshot(got)
	s.Require().NoError(err)

	s.Equal(want.Stats(), snap.Stats())
	for _, code := range []string{"mal", "mal17", "rc2ma", "mab92"} {
		w, _ := want.LocationPolicy(code)
		g, ok := snap.LocationPolicy(code)
		s.True(ok, code)
		s.Equal(w.Requestable, g.Requestable, code)
		s.Equal(w.DeliverableToResolution, g.DeliverableToResolution, code)
		s.Equal(len(w.DeliveryLocations), len(g.DeliveryLocations), code)
	}
	s.Equal(want.OnsiteEddCriteria(), snap.OnsiteEddCriteria())
}

func (s *PostgresSourceSuite) TestEmptyTablesAreNotFound() {
	_, err := s.src.Load(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
