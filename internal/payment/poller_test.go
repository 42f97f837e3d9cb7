package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/backstage/services/commerce/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*ChargeResult)
	return res, args.Error(1)
}

func (m *MockGateway) CheckCharge(ctx context.Context, reference string) (*ChargeResult, error) {
	args := m.Called(ctx, reference)
	res, _ := args.Get(0).(*ChargeResult)
	return res, args.Error(1)
}

func (m *MockGateway) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	args := m.Called(ctx, reference)
	res, _ := args.Get(0).(*Transaction)
	return res, args.Error(1)
}

func newTestPoller(gw Gateway, attempts int) *Poller {
	log, _ := test.NewNullLogger()
	return NewPoller(gw, 0, attempts, nil, log)
}

func TestAwaitSuccessOnLastAttempt(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckCharge", mock.Anything, "ref-1").Return(&ChargeResult{Status: StatusPending}, nil).Times(9)
	gw.On("CheckCharge", mock.Anything, "ref-1").Return(&ChargeResult{Reference: "ref-1", Status: StatusSuccess}, nil).Once()

	res, err := newTestPoller(gw, 10).AwaitSuccess(context.Background(), "ref-1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	gw.AssertNumberOfCalls(t, "CheckCharge", 10)
}

func TestAwaitSuccessTimesOut(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckCharge", mock.Anything, "ref-2").Return(&ChargeResult{Status: StatusPending}, nil)

	_, err := newTestPoller(gw, 10).AwaitSuccess(context.Background(), "ref-2")
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)

	var nc *NotConfirmedError
	require.True(t, errors.As(err, &nc))
	require.Equal(t, 10, nc.Attempts)
	require.Equal(t, StatusPending, nc.Status)
	gw.AssertNumberOfCalls(t, "CheckCharge", 10)
}

func TestAwaitSuccessKeepsWaitingOnOTP(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckCharge", mock.Anything, "ref-3").Return(&ChargeResult{Status: StatusSendOTP}, nil).Twice()
	gw.On("CheckCharge", mock.Anything, "ref-3").Return(&ChargeResult{Status: StatusSuccess}, nil).Once()

	_, err := newTestPoller(gw, 10).AwaitSuccess(context.Background(), "ref-3")
	require.NoError(t, err)
	gw.AssertNumberOfCalls(t, "CheckCharge", 3)
}

func TestAwaitSuccessStopsOnFailedStatus(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckCharge", mock.Anything, "ref-4").Return(&ChargeResult{Status: StatusPending}, nil).Once()
	gw.On("CheckCharge", mock.Anything, "ref-4").Return(&ChargeResult{Status: StatusFailed, DisplayText: "Insufficient balance"}, nil).Once()

	_, err := newTestPoller(gw, 10).AwaitSuccess(context.Background(), "ref-4")
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)
	require.Contains(t, err.Error(), "Insufficient balance")
	gw.AssertNumberOfCalls(t, "CheckCharge", 2)
}

func TestAwaitSuccessToleratesTransientErrors(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckCharge", mock.Anything, "ref-5").Return(nil, errors.New("connection reset")).Once()
	gw.On("CheckCharge", mock.Anything, "ref-5").Return(&ChargeResult{Status: StatusSuccess}, nil).Once()

	_, err := newTestPoller(gw, 3).AwaitSuccess(context.Background(), "ref-5")
	require.NoError(t, err)
}

func TestAwaitSuccessAbortsOnConfigurationError(t *testing.T) {
	gw := new(MockGateway)
	gw.On("CheckCharge", mock.Anything, "ref-6").Return(nil, &config.ConfigurationError{Setting: "paystack.secretkey"}).Once()

	_, err := newTestPoller(gw, 10).AwaitSuccess(context.Background(), "ref-6")
	require.ErrorIs(t, err, config.ErrMissingSetting)
	gw.AssertNumberOfCalls(t, "CheckCharge", 1)
}

func TestAwaitSuccessHonoursCancellation(t *testing.T) {
	gw := new(MockGateway)
	log, _ := test.NewNullLogger()
	p := NewPoller(gw, time.Hour, 10, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.AwaitSuccess(ctx, "ref-7")
	require.ErrorIs(t, err, context.Canceled)
	gw.AssertNotCalled(t, "CheckCharge", mock.Anything, mock.Anything)
}
