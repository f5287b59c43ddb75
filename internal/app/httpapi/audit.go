package httpapi

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/Gather-Network/conference_layer/internal/logging"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Auditor appends one JSON line per admin action to a log file.
type Auditor struct {
	mu   sync.Mutex
	file *os.File
	log  *logger.Logger
}

type auditEntry struct {
	Time     time.Time `json:"time"`
	TraceID  string    `json:"trace_id,omitempty"`
	ActorID  string    `json:"actor_id"`
	Role     string    `json:"role,omitempty"`
	Action   string    `json:"action"`
	Resource string    `json:"resource,omitempty"`
}

// NewAuditor opens (or creates) the audit log at path.
func NewAuditor(path string, log *logger.Logger) (*Auditor, error) {
	if log == nil {
		log = logger.NewDefault("audit")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &Auditor{file: file, log: log}, nil
}

// Record writes one audit line. Failures are logged, never surfaced to the
// request.
func (a *Auditor) Record(ctx context.Context, action, resource string) {
	entry := auditEntry{
		Time:     time.Now().UTC(),
		TraceID:  logging.GetTraceID(ctx),
		ActorID:  logging.GetUserID(ctx),
		Role:     logging.GetRole(ctx),
		Action:   action,
		Resource: resource,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		a.log.WithError(err).Error("failed to encode audit entry")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.Write(append(line, '\n')); err != nil {
		a.log.WithError(err).Error("failed to write audit entry")
	}
}

// Close flushes and closes the audit file.
func (a *Auditor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
