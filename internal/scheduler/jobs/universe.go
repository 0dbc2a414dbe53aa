package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/swingscan/internal/scheduler"
	"github.com/wonny/swingscan/internal/universe"
	"github.com/wonny/swingscan/pkg/logger"
)

// minConstituents guards against writing a truncated page over a good file
const minConstituents = 400

// MemberFetcher is satisfied by *universe.Fetcher
type MemberFetcher interface {
	Fetch(ctx context.Context) ([]universe.Member, error)
}

// UniverseRefreshJob re-downloads the S&P 500 constituents weekly
type UniverseRefreshJob struct {
	fetcher MemberFetcher
	path    string
	logger  *logger.Logger
}

// NewUniverseRefreshJob creates a job writing the refreshed CSV to path
func NewUniverseRefreshJob(fetcher MemberFetcher, path string, log *logger.Logger) *UniverseRefreshJob {
	return &UniverseRefreshJob{
		fetcher: fetcher,
		path:    path,
		logger:  log,
	}
}

// Name returns the job name
func (j *UniverseRefreshJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (Sunday 6 AM)
func (j *UniverseRefreshJob) Schedule() string {
	return "0 0 6 * * SUN"
}

// Run fetches, validates and writes the universe file
func (j *UniverseRefreshJob) Run(ctx context.Context) error {
	members, err := j.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch constituents: %w", err)
	}

	if len(members) < minConstituents {
		return scheduler.Permanent(fmt.Errorf("only %d constituents parsed (want >= %d), keeping existing file", len(members), minConstituents))
	}

	u, err := universe.New(members)
	if err != nil {
		return scheduler.Permanent(err)
	}

	if err := universe.WriteCSV(j.path, u.Members()); err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"members": u.Len(),
		"sectors": len(u.Sectors()),
		"path":    j.path,
	}).Info("Universe refreshed")

	return nil
}
