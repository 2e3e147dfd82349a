package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

type stubVerifier struct {
	identity *ExternalIdentity
	err      error
	calls    int
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (*ExternalIdentity, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	id := *v.identity
	return &id, nil
}

type stubUploader struct {
	url  string
	err  error
	body string
}

func (u *stubUploader) UploadAvatar(_ context.Context, userID string, file io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.body = string(b)
	return u.url + "/" + userID, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, ev models.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAudit) actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditAction, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}

var errProviderDown = errors.New("dial tcp: i/o timeout")
