// Package annotate adds QA labels and a QA assignee to the issues that the
// commits of a merged pull request reference.
package annotate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/action"
	actiongithub "github.com/simplesurance/steve/internal/action/github"
	"github.com/simplesurance/steve/internal/cfg"
	"github.com/simplesurance/steve/internal/commitmsg"
	"github.com/simplesurance/steve/internal/logfields"
	github_prov "github.com/simplesurance/steve/internal/provider/github"
	"github.com/simplesurance/steve/internal/routines"
	"github.com/simplesurance/steve/internal/steveerr"
	"github.com/simplesurance/steve/internal/webhook"
)

//go:generate mockgen -destination mocks/mock_githubclient.go -package mocks . GithubClient

const loggerName = "annotate"

const DefMaxParallelMutations = 4

// GithubClient is the GitHub API client used by the Pipeline.
type GithubClient interface {
	CommitMessages(ctx context.Context, commitsURL string) ([]string, error)
	actiongithub.IssueClient
}

// Retryer is an interface used for running GithubClient methods repeatedly if
// they fail with a temporary error.
type Retryer interface {
	Run(context.Context, func(context.Context) error, []zap.Field) error
}

// Pipeline processes GitHub webhook deliveries.
// For merged pull requests of configured repositories it scans the commit
// messages for QA triggers and applies the configured labels and assignee to
// every referenced issue.
type Pipeline struct {
	logger               *zap.Logger
	ghClient             GithubClient
	retryer              Retryer
	scanner              *commitmsg.Scanner
	maxParallelMutations int
	issueLookup          bool
}

// WithMaxParallelMutations sets how many issues of a single delivery are
// mutated concurrently.
func WithMaxParallelMutations(n int) func(*Pipeline) {
	return func(p *Pipeline) {
		p.maxParallelMutations = n
	}
}

// WithIssueLookup enables or disables checking that an issue exists before
// it is mutated.
func WithIssueLookup(enabled bool) func(*Pipeline) {
	return func(p *Pipeline) {
		p.issueLookup = enabled
	}
}

func New(ghClient GithubClient, retryer Retryer, opts ...func(*Pipeline)) *Pipeline {
	p := Pipeline{
		logger:               zap.L().Named(loggerName),
		ghClient:             ghClient,
		retryer:              retryer,
		scanner:              commitmsg.NewScanner(),
		maxParallelMutations: DefMaxParallelMutations,
		issueLookup:          true,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return &p
}

// Process handles a single webhook delivery.
// Failures are logged, they are never returned.
func (p *Pipeline) Process(ctx context.Context, ev *github_prov.Event, repos cfg.Repositories) {
	logger := p.logger.With(ev.LogFields...)

	prEvent, err := webhook.Parse(ev.Type, ev.JSON)
	if err != nil {
		if errors.Is(err, steveerr.ErrNotApplicable) {
			logger.Debug(
				"ignoring event",
				logfields.Event("event_ignored"),
				zap.Error(err),
			)
			metrics.DeliveryInc(deliveryOutcomeNotApplicable)
			return
		}

		logger.Warn(
			"parsing event failed",
			logfields.Event("event_parsing_failed"),
			zap.Error(err),
		)
		metrics.DeliveryInc(deliveryOutcomeParseError)
		return
	}

	logger = logger.With(prEvent.LogFields()...)

	if !prEvent.Merged {
		logger.Debug("ignoring event, pull request is not merged", logfields.Event("event_ignored"))
		metrics.DeliveryInc(deliveryOutcomeNotMerged)
		return
	}

	repoCfg, exists := repos.Resolve(prEvent.Owner, prEvent.RepoName)
	if !exists {
		logger.Info(
			"ignoring event, repository is not configured",
			logfields.Event("repository_untracked"),
		)
		metrics.DeliveryInc(deliveryOutcomeUntracked)
		return
	}

	messages, err := p.commitMessages(ctx, prEvent, logger)
	if err != nil {
		logger.Error(
			"fetching commit messages failed, event is dropped",
			logfields.Event("fetching_commit_messages_failed"),
			zap.Error(err),
		)
		metrics.DeliveryInc(deliveryOutcomeFetchFailed)
		return
	}

	issues := p.scanner.Scan(messages...)
	if len(issues) == 0 {
		logger.Debug(
			"commit messages do not reference issues that need qa",
			logfields.Event("no_qa_issues_found"),
			zap.Int("commit_count", len(messages)),
		)
		metrics.DeliveryInc(deliveryOutcomeNoIssues)
		return
	}

	logger.Info(
		"annotating issues that need qa",
		logfields.Event("annotating_issues"),
		zap.Ints("github.issues", issues.Slice()),
	)

	p.mutateIssues(ctx, prEvent, repoCfg, issues)

	metrics.DeliveryInc(deliveryOutcomeProcessed)
}

func (p *Pipeline) commitMessages(ctx context.Context, ev *webhook.PullRequestEvent, logger *zap.Logger) ([]string, error) {
	var result []string

	err := p.retryer.Run(
		ctx,
		func(ctx context.Context) error {
			msgs, err := p.ghClient.CommitMessages(ctx, ev.CommitsURL.String())
			if err != nil {
				return err
			}

			result = msgs
			return nil
		},
		[]zap.Field{logfields.Operation("github.list_commits"), logfields.CommitsURL(ev.CommitsURL.String())},
	)
	if err != nil {
		return nil, err
	}

	logger.Debug(
		"retrieved commit messages",
		logfields.Event("commit_messages_retrieved"),
		zap.Int("commit_count", len(result)),
	)

	return result, nil
}

func (p *Pipeline) mutateIssues(ctx context.Context, ev *webhook.PullRequestEvent, repoCfg *cfg.RepoConfig, issues commitmsg.IssueSet) {
	pool := routines.NewPool(p.maxParallelMutations)

	for _, nr := range issues.Slice() {
		mutation := NewIssueMutation(nr, repoCfg)
		issue := actiongithub.Issue{
			RepositoryOwner: ev.Owner,
			Repository:      ev.RepoName,
			Number:          nr,
		}

		pool.Queue(func() {
			outcome := p.mutateIssue(ctx, issue, mutation)
			metrics.IssueMutationInc(ev.Repository(), outcome)
		})
	}

	pool.Wait()
}

func (p *Pipeline) mutateIssue(ctx context.Context, issue actiongithub.Issue, mutation *IssueMutation) mutationOutcome {
	logger := p.logger.With(issue.LogFields()...)

	if p.issueLookup {
		err := p.run(ctx, actiongithub.NewIssueExistsRunner(p.ghClient, issue))
		if err != nil {
			if errors.Is(err, steveerr.ErrIssueNotFound) {
				logger.Info(
					"skipping issue, it does not exist",
					logfields.Event("issue_not_found"),
				)
				return mutationOutcomeSkipped
			}

			logger.Error(
				"looking up issue failed, issue is not annotated",
				logfields.Event("issue_lookup_failed"),
				zap.Error(err),
			)
			return mutationOutcomeFailure
		}
	}

	var failed bool

	for _, runner := range mutation.Runners(p.ghClient, issue) {
		logger := p.logger.With(runner.LogFields()...)

		if err := p.run(ctx, runner); err != nil {
			logger.Error(
				"annotating issue failed",
				logfields.Event("issue_annotation_failed"),
				zap.Error(err),
			)
			failed = true
			continue
		}

		logger.Info("issue annotated", logfields.Event("issue_annotated"))
	}

	if failed {
		return mutationOutcomeFailure
	}

	return mutationOutcomeSuccess
}

func (p *Pipeline) run(ctx context.Context, runner action.Runner) error {
	if err := p.retryer.Run(ctx, runner.Run, runner.LogFields()); err != nil {
		return fmt.Errorf("%s: %w", runner, err)
	}

	return nil
}
