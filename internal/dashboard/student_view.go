package dashboard

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/session"
)

// StudentView is the read-only page a student sees about themselves.
type StudentView struct {
	api  OwnRecordAPI
	sess *session.Session
	log  zerolog.Logger

	mu     sync.Mutex
	record *model.StudentDetail
	trend  []model.TrendPoint
}

func NewStudentView(api OwnRecordAPI, sess *session.Session, log zerolog.Logger) *StudentView {
	return &StudentView{
		api:  api,
		sess: sess,
		log:  log.With().Str("component", "student_view").Logger(),
	}
}

// Load fetches the student's record and trend. A student without scores
// gets an empty trend.
func (v *StudentView) Load(ctx context.Context) error {
	if !v.sess.Can(session.ViewOwnRecord) {
		return notPermitted("view this page")
	}

	record, err := v.api.GetOwnRecord(ctx)
	if err != nil {
		v.log.Error().Err(err).Msg("Failed to fetch own record")
		return describe(err, "Failed to connect to the server.")
	}

	trend, err := v.api.Trend(ctx, record.Info.StudentID)
	if err != nil {
		if apiErr, ok := apiclient.AsAPIError(err); !ok || apiErr.Status != http.StatusNotFound {
			v.log.Error().Err(err).Msg("Failed to fetch trend")
			return describe(err, "Failed to connect to the server.")
		}
		trend = []model.TrendPoint{}
	}

	v.mu.Lock()
	v.record = record
	v.trend = trend
	v.mu.Unlock()
	return nil
}

// Record returns the loaded record, or nil.
func (v *StudentView) Record() *model.StudentDetail {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record
}

// Trend returns the loaded trend.
func (v *StudentView) Trend() []model.TrendPoint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.TrendPoint(nil), v.trend...)
}

// Reset forgets the loaded data.
func (v *StudentView) Reset() {
	v.mu.Lock()
	v.record = nil
	v.trend = nil
	v.mu.Unlock()
}
