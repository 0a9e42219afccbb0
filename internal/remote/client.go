package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arztportal/patient-portal/internal/apperrors"
	"github.com/arztportal/patient-portal/internal/directory"
	"github.com/arztportal/patient-portal/internal/profile"
	"github.com/arztportal/patient-portal/internal/tasks"
)

// transcriptPendingMarker is the error body the scheduler returns for a
// task that exists but whose call protocol has not been written yet. It
// must be told apart from an unknown task id.
const transcriptPendingMarker = "Call protocol not available"

// errTranscriptPending is internal to the client; GetCallTranscript turns
// it into a Transcript with Ready false.
var errTranscriptPending = errors.New("call transcript not yet available")

// Client talks to the remote scheduler/directory service. It implements
// directory.Client, tasks.Scheduler and profile.Client. Timeouts are owned
// by the embedded http.Client; a timeout surfaces like any other
// RemoteError, and mutating calls are never retried here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	const op = "list doctors"

	var body listDoctorsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/list_all_doctors", nil, &body, op, "doctor", ""); err != nil {
		return nil, err
	}

	doctors := make([]directory.Doctor, 0, len(body.Doctors))
	for _, d := range body.Doctors {
		doctors = append(doctors, directory.Doctor{
			ID:           d.DoctorID,
			Name:         d.Name,
			Phone:        d.Phone,
			OpeningHours: d.OpeningHours,
			Profession:   d.Profession,
		})
	}
	return doctors, nil
}

func (c *Client) CreateDoctor(ctx context.Context, in directory.DoctorInput) (directory.Doctor, error) {
	const op = "add doctor"

	req := addDoctorRequest{
		Name:         in.Name,
		Phone:        in.Phone,
		OpeningHours: in.OpeningHours,
		Profession:   in.Profession,
	}
	var body addDoctorResponse
	if err := c.doJSON(ctx, http.MethodPost, "/add_doctor", req, &body, op, "doctor", ""); err != nil {
		return directory.Doctor{}, err
	}
	if body.DoctorID == "" {
		return directory.Doctor{}, apperrors.Remote(op, fmt.Errorf("server returned no doctor_id"))
	}

	return directory.Doctor{
		ID:           body.DoctorID,
		Name:         in.Name,
		Phone:        in.Phone,
		OpeningHours: in.OpeningHours,
		Profession:   in.Profession,
	}, nil
}

func (c *Client) UpdateDoctor(ctx context.Context, doc directory.Doctor) (directory.Doctor, error) {
	const op = "update doctor"

	req := updateDoctorRequest{
		DoctorID:     doc.ID,
		Name:         doc.Name,
		Phone:        doc.Phone,
		OpeningHours: doc.OpeningHours,
		Profession:   doc.Profession,
	}
	if err := c.doJSON(ctx, http.MethodPut, "/update_doctor", req, nil, op, "doctor", doc.ID); err != nil {
		return directory.Doctor{}, err
	}
	return doc, nil
}

func (c *Client) DeleteDoctor(ctx context.Context, id string) error {
	const op = "delete doctor"
	return c.doJSON(ctx, http.MethodDelete, "/delete_doctor/"+id, nil, nil, op, "doctor", id)
}

func (c *Client) ScheduleCallTask(ctx context.Context, req tasks.AppointmentRequest) (string, error) {
	const op = "schedule call task"

	var body scheduleCallTaskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/schedule_call_task", req, &body, op, "task", ""); err != nil {
		return "", err
	}
	if body.TaskID == "" {
		return "", apperrors.Remote(op, fmt.Errorf("server returned no task_id"))
	}
	return body.TaskID, nil
}

func (c *Client) ListTaskResults(ctx context.Context) ([]tasks.TaskResult, error) {
	const op = "list task results"

	var body taskResultsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/get_task_results", nil, &body, op, "task", ""); err != nil {
		return nil, err
	}

	results := make([]tasks.TaskResult, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, tasks.TaskResult{
			TaskID: r.TaskID,
			Status: mapWireStatus(r.StatusCode),
		})
	}
	return results, nil
}

// GetCallTranscript distinguishes three outcomes: a transcript, a task
// whose protocol is not written yet (Ready false), and an unknown task id
// (NotFoundError). The scheduler reports the latter two with the same
// status code but different bodies.
func (c *Client) GetCallTranscript(ctx context.Context, taskID string) (tasks.Transcript, error) {
	const op = "get call transcript"

	var body callProtocolResponse
	err := c.doJSON(ctx, http.MethodGet, "/get_task_call_protocol/"+taskID, nil, &body, op, "task", taskID)
	if err != nil {
		if errors.Is(err, errTranscriptPending) {
			return tasks.Transcript{TaskID: taskID, Ready: false}, nil
		}
		return tasks.Transcript{}, err
	}

	exchanges := make([]tasks.Exchange, 0, len(body.CallProtocol))
	for _, e := range body.CallProtocol {
		exchanges = append(exchanges, tasks.Exchange{Speaker: e.Speaker, Message: e.Message})
	}
	return tasks.Transcript{TaskID: taskID, Ready: true, Exchanges: exchanges}, nil
}

func (c *Client) FetchProfile(ctx context.Context, userID string) (profile.Profile, error) {
	const op = "fetch profile"

	var body wireProfile
	if err := c.doJSON(ctx, http.MethodGet, "/get_profile/"+userID, nil, &body, op, "profile", userID); err != nil {
		return profile.Profile{}, err
	}
	return profile.Profile{
		UserID:    body.UserID,
		FirstName: body.FirstName,
		Surname:   body.Surname,
		BirthDate: body.BirthDate,
		Insurance: body.Insurance,
	}, nil
}

func (c *Client) UpdateProfile(ctx context.Context, p profile.Profile) error {
	const op = "update profile"

	req := wireProfile{
		UserID:    p.UserID,
		FirstName: p.FirstName,
		Surname:   p.Surname,
		BirthDate: p.BirthDate,
		Insurance: p.Insurance,
	}
	return c.doJSON(ctx, http.MethodPut, "/update_profile", req, nil, op, "profile", p.UserID)
}

// Health pings the service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil, "scheduler health", "scheduler", "")
}

// doJSON sends one request and decodes the response into out (when out is
// non-nil). Non-2xx statuses are mapped onto the portal error taxonomy; id
// is the identifier the call asked about, empty for collection endpoints.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, op, kind, id string) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.Remote(op, fmt.Errorf("encode request: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Remote(op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Remote(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapFailure(resp, op, kind, path, id)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Remote(op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func (c *Client) mapFailure(resp *http.Response, op, kind, path, id string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var body errorResponse
	_ = json.Unmarshal(raw, &body)
	reason := body.Error
	if reason == "" {
		reason = strings.TrimSpace(string(raw))
	}

	c.log.Warn("remote call failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("reason", reason),
	)

	switch resp.StatusCode {
	case http.StatusNotFound:
		if strings.Contains(reason, transcriptPendingMarker) {
			return errTranscriptPending
		}
		if id == "" {
			id = body.TaskID
		}
		return apperrors.NotFound(kind, id)
	case http.StatusConflict:
		return apperrors.Conflict(op, reason)
	default:
		return apperrors.Remote(op, fmt.Errorf("server returned status %d: %s", resp.StatusCode, reason))
	}
}
