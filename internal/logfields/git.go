package logfields

import "go.uber.org/zap"

func Issue(val int) zap.Field {
	return zap.Int("github.issue", val)
}

func Repository(val string) zap.Field {
	return zap.String("git.repository", val)
}

func RepositoryOwner(val string) zap.Field {
	return zap.String("github.repository_owner", val)
}

func Labels(val []string) zap.Field {
	return zap.Strings("github.labels", val)
}

func Assignee(val string) zap.Field {
	return zap.String("github.assignee", val)
}

func CommitsURL(val string) zap.Field {
	return zap.String("github.commits_url", val)
}
