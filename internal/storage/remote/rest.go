package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
)

const (
	restPrefix = "/rest/v1"
	// PostgREST refuses DELETE without a filter, this one matches every row.
	matchAllEntries = "neq.00000000-0000-0000-0000-000000000000"
	// postgres unique_violation
	codeUniqueViolation = "23505"
)

// RESTDriver talks to a PostgREST endpoint such as the one Supabase exposes.
type RESTDriver struct {
	client *resty.Client
}

var _ driver.Backend = (*RESTDriver)(nil)

// APIError is the error body returned by PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote request failed with status %d", e.Status)
	}
	return fmt.Sprintf("remote request failed with status %d: %s", e.Status, e.Message)
}

// NewREST configures a client for cfg. No request is sent.
func NewREST(cfg Config) (*RESTDriver, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+restPrefix).
		SetHeader("apikey", cfg.Key).
		SetAuthToken(cfg.Key).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetError(&APIError{})
	return &RESTDriver{client: client}, nil
}

func (d *RESTDriver) request(ctx context.Context) *resty.Request {
	return d.client.R().SetContext(ctx)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(resp.String())
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Code == codeUniqueViolation || resp.StatusCode() == http.StatusConflict {
		return fmt.Errorf("%w: %w", driver.ErrDuplicate, apiErr)
	}
	return apiErr
}

// Init is a no-op, the remote schema and data are provisioned out of band.
func (d *RESTDriver) Init(context.Context) error {
	return nil
}

func (d *RESTDriver) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	resp, err := d.request(ctx).
		SetQueryParam("select", "*").
		SetResult(&users).
		Get("/users")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return users, nil
}

func (d *RESTDriver) GetUser(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	resp, err := d.request(ctx).
		SetQueryParams(map[string]string{
			"select":   "*",
			"username": "eq." + username,
			"limit":    "1",
		}).
		SetResult(&users).
		Get("/users")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (d *RESTDriver) CountUsers(ctx context.Context) (int64, error) {
	resp, err := d.request(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParams(map[string]string{
			"select": "username",
			"limit":  "1",
		}).
		Get("/users")
	if err := checkResponse(resp, err); err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	count, err := parseContentRange(resp.Header().Get("Content-Range"))
	if err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}

// parseContentRange reads the total from a header like "0-0/12" or "*/0".
func parseContentRange(header string) (int64, error) {
	_, total, ok := strings.Cut(header, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("missing total in content range %q", header)
	}
	return strconv.ParseInt(total, 10, 64)
}

func (d *RESTDriver) CreateUser(ctx context.Context, user models.User) error {
	resp, err := d.request(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(user).
		Post("/users")
	if err := checkResponse(resp, err); err != nil {
		if !errors.Is(err, driver.ErrDuplicate) {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (d *RESTDriver) DeleteNonAdminUsers(ctx context.Context) error {
	resp, err := d.request(ctx).
		// rows with a NULL flag are not admins either
		SetQueryParam("isAdmin", "not.is.true").
		Delete("/users")
	if err := checkResponse(resp, err); err != nil {
		log.Error("failed to delete users", "error", err)
		return err
	}
	return nil
}

func (d *RESTDriver) ListEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	var entries []models.DiaryEntry
	resp, err := d.request(ctx).
		SetQueryParams(map[string]string{
			"select": "*",
			"order":  "createdAt.desc",
		}).
		SetResult(&entries).
		Get("/entries")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *RESTDriver) AddEntries(ctx context.Context, entries ...models.DiaryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	resp, err := d.request(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(entries).
		Post("/entries")
	if err := checkResponse(resp, err); err != nil {
		log.Error("failed to create entries", "error", err)
		return err
	}
	return nil
}

func (d *RESTDriver) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error {
	var updated []models.DiaryEntry
	cols := patchColumns(patch)
	req := d.request(ctx).
		SetQueryParam("id", "eq."+id).
		SetResult(&updated)

	var (
		resp *resty.Response
		err  error
	)
	if len(cols) == 0 {
		resp, err = req.SetQueryParam("select", "id").Get("/entries")
	} else {
		resp, err = req.
			SetHeader("Prefer", "return=representation").
			SetBody(cols).
			Patch("/entries")
	}
	if err := checkResponse(resp, err); err != nil {
		log.Error("failed to update entry", "error", err)
		return err
	}
	if len(updated) == 0 {
		return fmt.Errorf("entry %s: %w", id, driver.ErrNotFound)
	}
	return nil
}

func (d *RESTDriver) DeleteEntry(ctx context.Context, id string) error {
	resp, err := d.request(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/entries")
	if err := checkResponse(resp, err); err != nil {
		log.Error("failed to delete entry", "error", err)
		return err
	}
	return nil
}

func (d *RESTDriver) DeleteAllEntries(ctx context.Context) error {
	resp, err := d.request(ctx).
		SetQueryParam("id", matchAllEntries).
		Delete("/entries")
	if err := checkResponse(resp, err); err != nil {
		log.Error("failed to delete entries", "error", err)
		return err
	}
	return nil
}

func (d *RESTDriver) Close() error {
	return nil
}
