package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/usecase/location"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/nearest"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitFunc func(context.Context, location.SubmitInput) (location.SubmitOutput, error)

func (f submitFunc) Execute(ctx context.Context, in location.SubmitInput) (location.SubmitOutput, error) {
	return f(ctx, in)
}

type driversFunc func(context.Context, nearest.DriversInput) (nearest.DriversOutput, error)

func (f driversFunc) Execute(ctx context.Context, in nearest.DriversInput) (nearest.DriversOutput, error) {
	return f(ctx, in)
}

type supermarketsFunc func(context.Context, nearest.SupermarketsInput) (nearest.SupermarketsOutput, error)

func (f supermarketsFunc) Execute(ctx context.Context, in nearest.SupermarketsInput) (nearest.SupermarketsOutput, error) {
	return f(ctx, in)
}

func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestLocation_Submit(t *testing.T) {
	var got location.SubmitInput
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewLocationHandler(submitFunc(func(_ context.Context, in location.SubmitInput) (location.SubmitOutput, error) {
		got = in
		pos := geo.Coordinate{Latitude: in.Latitude, Longitude: in.Longitude}
		return location.SubmitOutput{Accepted: true, Reason: location.ReasonAccepted, Position: &pos, LastUpdateAt: at}, nil
	}), logger.Nop())

	rec := serve(http.MethodPost, "/drivers/{id}/location", "/drivers/d-1/location", `{"latitude":33.3,"longitude":44.4}`, h.Submit)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "d-1", got.EntityID)
	assert.Equal(t, 33.3, got.Latitude)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["accepted"])
	assert.Equal(t, "accepted", out["reason"])
}

func TestLocation_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing longitude", `{"latitude":1}`, nil, http.StatusBadRequest},
		{"malformed body", `{`, nil, http.StatusBadRequest},
		{"invalid coordinate", `{"latitude":91,"longitude":0}`, entity.ErrInvalidCoordinate, http.StatusBadRequest},
		{"unknown driver", `{"latitude":1,"longitude":1}`, entity.ErrEntityNotFound, http.StatusNotFound},
		{"store down", `{"latitude":1,"longitude":1}`, fmt.Errorf("%w: timeout", entity.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"unexpected", `{"latitude":1,"longitude":1}`, fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLocationHandler(submitFunc(func(context.Context, location.SubmitInput) (location.SubmitOutput, error) {
				return location.SubmitOutput{}, tt.err
			}), logger.Nop())

			rec := serve(http.MethodPost, "/drivers/{id}/location", "/drivers/d-1/location", tt.body, h.Submit)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNearest_FindDrivers(t *testing.T) {
	var got nearest.DriversInput
	h := NewNearestHandler(driversFunc(func(_ context.Context, in nearest.DriversInput) (nearest.DriversOutput, error) {
		got = in
		return nearest.DriversOutput{Drivers: []nearest.DriverMatch{}}, nil
	}), nil)

	rec := serve(http.MethodGet, "/drivers/nearest", "/drivers/nearest?latitude=33.3&longitude=44.4&serviceType=delivery&limit=2", "", h.FindDrivers)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, nearest.DriversInput{Latitude: 33.3, Longitude: 44.4, ServiceType: "delivery", AvailableOnly: true, Limit: 2}, got)
	assert.JSONEq(t, `{"drivers":[]}`, rec.Body.String())
}

func TestNearest_FindDriversValidation(t *testing.T) {
	h := NewNearestHandler(driversFunc(func(context.Context, nearest.DriversInput) (nearest.DriversOutput, error) {
		return nearest.DriversOutput{}, nil
	}), nil)

	for _, target := range []string{
		"/drivers/nearest?longitude=1&serviceType=x",
		"/drivers/nearest?latitude=abc&longitude=1&serviceType=x",
		"/drivers/nearest?latitude=1&longitude=1",
		"/drivers/nearest?latitude=1&longitude=1&serviceType=x&limit=-1",
	} {
		rec := serve(http.MethodGet, "/drivers/nearest", target, "", h.FindDrivers)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestNearest_FindSupermarkets(t *testing.T) {
	found := true
	h := NewNearestHandler(nil, supermarketsFunc(func(context.Context, nearest.SupermarketsInput) (nearest.SupermarketsOutput, error) {
		if !found {
			return nearest.SupermarketsOutput{Ranked: []nearest.SupermarketMatch{}}, nil
		}
		m := nearest.SupermarketMatch{Supermarket: entity.Supermarket{ID: "s-1"}, Location: entity.Location{ID: "l-3"}, DistanceKm: 3}
		return nearest.SupermarketsOutput{Nearest: &m, Ranked: []nearest.SupermarketMatch{m}}, nil
	}))

	rec := serve(http.MethodGet, "/supermarkets/nearest", "/supermarkets/nearest?latitude=0&longitude=0", "", h.FindSupermarkets)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"l-3"`)

	found = false
	rec = serve(http.MethodGet, "/supermarkets/nearest", "/supermarkets/nearest?latitude=0&longitude=0", "", h.FindSupermarkets)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeTokens struct {
	owner entity.TokenOwner
	token string
	err   error
}

func (f *fakeTokens) Register(_ context.Context, in notification.RegisterTokenInput) (notification.RegisterTokenOutput, error) {
	f.owner, f.token = in.Owner, in.Token
	return notification.RegisterTokenOutput{Added: true}, f.err
}

func (f *fakeTokens) Status(_ context.Context, owner entity.TokenOwner) (notification.TokenStatusOutput, error) {
	f.owner = owner
	return notification.TokenStatusOutput{OwnerID: owner.ID, HasToken: true, DeviceCount: 1}, f.err
}

func TestToken_Register(t *testing.T) {
	svc := &fakeTokens{}
	h := NewTokenHandler(svc)

	rec := serve(http.MethodPut, "/users/{id}/fcm-token", "/users/u-1/fcm-token", `{"fcmToken":"tok"}`, h.RegisterUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.TokenOwner{Kind: entity.OwnerUser, ID: "u-1"}, svc.owner)
	assert.Equal(t, "tok", svc.token)
}

func TestToken_RegisterBlank(t *testing.T) {
	h := NewTokenHandler(&fakeTokens{err: entity.ErrTokenIsRequired})

	rec := serve(http.MethodPut, "/drivers/{id}/fcm-token", "/drivers/d-1/fcm-token", `{"fcmToken":""}`, h.RegisterDriver)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToken_Status(t *testing.T) {
	svc := &fakeTokens{}
	h := NewTokenHandler(svc)

	rec := serve(http.MethodGet, "/drivers/{id}/fcm-token", "/drivers/d-9/fcm-token", "", h.DriverStatus)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.OwnerDriver, svc.owner.Kind)
	assert.Contains(t, rec.Body.String(), `"deviceCount":1`)
}
