package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	messagingScope  = "https://www.googleapis.com/auth/firebase.messaging"
	defaultEndpoint = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
)

// FCMTransport sends through the Firebase Cloud Messaging HTTP v1 API.
type FCMTransport struct {
	client   *http.Client
	endpoint string
	logger   logger.Logger
}

// NewFCMTransport authenticates with a service account key. projectID may be
// empty when the key carries it.
func NewFCMTransport(ctx context.Context, projectID string, credentialsJSON []byte, log logger.Logger) (*FCMTransport, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrTransportUnavailable, err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id missing", entity.ErrTransportUnavailable)
	}
	return NewFCMTransportWithClient(oauth2.NewClient(ctx, creds.TokenSource), fmt.Sprintf(defaultEndpoint, projectID), log), nil
}

func NewFCMTransportWithClient(client *http.Client, endpoint string, log logger.Logger) *FCMTransport {
	return &FCMTransport{client: client, endpoint: endpoint, logger: log}
}

type fcmRequest struct {
	ValidateOnly bool       `json:"validate_only,omitempty"`
	Message      fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification *fcmNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type fcmErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (t *FCMTransport) SendOne(ctx context.Context, token string, msg outbound.PushMessage) (outbound.DeliveryOutcome, error) {
	return t.send(ctx, fcmRequest{Message: fcmMessage{
		Token:        token,
		Notification: &fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}})
}

// Validate sends a validate_only request, which FCM checks without
// delivering to the device.
func (t *FCMTransport) Validate(ctx context.Context, token string) (outbound.DeliveryOutcome, error) {
	return t.send(ctx, fcmRequest{
		ValidateOnly: true,
		Message: fcmMessage{
			Token:        token,
			Notification: &fcmNotification{Title: "validation"},
		},
	})
}

func (t *FCMTransport) send(ctx context.Context, body fcmRequest) (outbound.DeliveryOutcome, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return outbound.DeliveryTransientFailure, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return outbound.DeliveryTransientFailure, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn(ctx, "FCM request failed",
			logger.String("token", entity.Preview(body.Message.Token)),
			logger.WithError(err),
		)
		return outbound.DeliveryTransientFailure, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return outbound.DeliverySuccess, nil
	}

	var fcmErr fcmErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&fcmErr)
	outcome, err := classify(resp.StatusCode, fcmErr)
	t.logger.Warn(ctx, "FCM rejected message",
		logger.String("token", entity.Preview(body.Message.Token)),
		logger.Int("status", resp.StatusCode),
		logger.String("fcm_status", fcmErr.Error.Status),
		logger.String("outcome", outcome.String()),
	)
	return outcome, err
}

// classify maps an FCM error response to a delivery outcome. Only errors
// about the registration token itself are permanent; INVALID_ARGUMENT is
// also returned for malformed messages, which says nothing about the token.
func classify(status int, body fcmErrorResponse) (outbound.DeliveryOutcome, error) {
	for _, d := range body.Error.Details {
		switch d.ErrorCode {
		case "UNREGISTERED", "SENDER_ID_MISMATCH":
			return outbound.DeliveryPermanentInvalid, nil
		case "INVALID_ARGUMENT":
			return invalidArgument(body.Error.Message), nil
		case "QUOTA_EXCEEDED", "UNAVAILABLE", "INTERNAL", "THIRD_PARTY_AUTH_ERROR":
			return outbound.DeliveryTransientFailure, nil
		}
	}
	switch status {
	case http.StatusNotFound:
		return outbound.DeliveryPermanentInvalid, nil
	case http.StatusBadRequest:
		return invalidArgument(body.Error.Message), nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, fmt.Errorf("%w: fcm returned %d %s", entity.ErrTransportUnavailable, status, body.Error.Message)
	default:
		return outbound.DeliveryTransientFailure, nil
	}
}

func invalidArgument(message string) outbound.DeliveryOutcome {
	if strings.Contains(strings.ToLower(message), "registration token") {
		return outbound.DeliveryPermanentInvalid
	}
	return outbound.DeliveryTransientFailure
}

// UnavailableTransport is wired when no FCM credentials are configured.
type UnavailableTransport struct{}

func (UnavailableTransport) SendOne(context.Context, string, outbound.PushMessage) (outbound.DeliveryOutcome, error) {
	return 0, entity.ErrTransportUnavailable
}

func (UnavailableTransport) Validate(context.Context, string) (outbound.DeliveryOutcome, error) {
	return 0, entity.ErrTransportUnavailable
}
