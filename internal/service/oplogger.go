package service

import (
	"context"
	"fmt"

	"github.com/subkit/subkit/internal/domain/oplog"
	"github.com/subkit/subkit/internal/logger"
)

// opLogger writes one lifecycle operation's narrative to both the structured
// logger and the durable operation log, tagged with the operation's log
// group so all lines can be recalled together.
type opLogger struct {
	log        *logger.Logger
	repo       oplog.Repository
	logGroup   string
	instanceID string
}

func newOpLogger(log *logger.Logger, repo oplog.Repository, logGroup string) *opLogger {
	return &opLogger{
		log:      log.WithLogGroup(logGroup),
		repo:     repo,
		logGroup: logGroup,
	}
}

// forInstance returns a child logger whose entries reference an instance
func (l *opLogger) forInstance(instanceID string) *opLogger {
	return &opLogger{
		log:        l.log,
		repo:       l.repo,
		logGroup:   l.logGroup,
		instanceID: instanceID,
	}
}

func (l *opLogger) logf(ctx context.Context, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.log.Infow(line, "instance_id", l.instanceID)

	if err := l.repo.Create(ctx, oplog.NewEntry(l.logGroup, l.instanceID, line)); err != nil {
		// the durable trail is best effort; losing a line must not fail
		// the operation it narrates
		l.log.Warnw("failed to persist operation log entry", "error", err)
	}
}
