// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/ircode"
)

// ============================================================
// Mocks
// ============================================================

type mockServices struct {
	mock.Mock
}

func (m *mockServices) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	return m.Called(domain, service, data).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	return m.Called(topic, string(payload)).Error(0)
}

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (p *bufferPort) Close() error {
	p.closed = true
	return nil
}

const (
	rawCode    = "1000,-500,1000,-500"
	base64Code = "JgAEACEQIRANBQAA"
)

// ============================================================
// Negotiation Tests
// ============================================================

func TestNew_EncodingNegotiation(t *testing.T) {
	tests := []struct {
		name       string
		controller string
		source     string
		target     string
	}{
		{"raw to broadlink", NameBroadlink, climate.EncodingRaw, climate.EncodingBase64},
		{"hex to broadlink", NameBroadlink, climate.EncodingHex, climate.EncodingBase64},
		{"generic to broadlink", NameBroadlink, climate.EncodingGeneric, climate.EncodingBase64},
		{"xiaomi native", NameXiaomi, climate.EncodingXiaomi, climate.EncodingXiaomi},
		{"base64 to xiaomi pronto", NameXiaomi, climate.EncodingBase64, climate.EncodingPronto},
		{"raw stays raw on lookin", NameLOOKin, climate.EncodingRaw, climate.EncodingRaw},
		{"base64 to lookin pronto", NameLOOKin, climate.EncodingBase64, climate.EncodingPronto},
		{"pronto to mqtt", NameMQTT, climate.EncodingPronto, climate.EncodingRaw},
		{"base64 to esphome", NameESPHome, climate.EncodingBase64, climate.EncodingRaw},
		{"generic to serial", NameSerial, climate.EncodingGeneric, climate.EncodingRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.controller, Options{
				Encoding:  tt.source,
				Services:  &mockServices{},
				Publisher: &mockPublisher{},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.controller, c.Name())
			assert.Equal(t, tt.target, c.Encoding())
		})
	}
}

func TestNew_UnsupportedConversion(t *testing.T) {
	// xiaomi codes are opaque and only the Xiaomi controller accepts them
	for _, name := range []string{NameBroadlink, NameMQTT, NameLOOKin, NameESPHome, NameSerial} {
		t.Run(name, func(t *testing.T) {
			_, err := New(name, Options{
				Encoding:  climate.EncodingXiaomi,
				Services:  &mockServices{},
				Publisher: &mockPublisher{},
			})
			assert.ErrorIs(t, err, ErrUnsupportedConversion)
		})
	}
}

func TestNew_UnknownController(t *testing.T) {
	_, err := New("Infrared9000", Options{Encoding: climate.EncodingRaw})
	assert.ErrorIs(t, err, ErrUnknownController)

	_, err = Accepts("Infrared9000")
	assert.ErrorIs(t, err, ErrUnknownController)
}

func TestNew_MissingTransport(t *testing.T) {
	for _, name := range []string{NameBroadlink, NameXiaomi, NameMQTT, NameESPHome} {
		_, err := New(name, Options{Encoding: climate.EncodingRaw})
		assert.ErrorIs(t, err, ErrMissingTransport, name)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t,
		[]string{NameBroadlink, NameESPHome, NameLOOKin, NameMQTT, NameSerial, NameXiaomi},
		Names())

	encs, err := Accepts(NameXiaomi)
	require.NoError(t, err)
	assert.Equal(t, []string{climate.EncodingPronto, climate.EncodingXiaomi}, encs)
}

// ============================================================
// Send Tests
// ============================================================

func TestBroadlink_Send(t *testing.T) {
	services := &mockServices{}
	services.On("CallService", "remote", "send_command", map[string]interface{}{
		"entity_id":  "remote.living_room",
		"command":    []string{"b64:" + base64Code, "b64:" + base64Code},
		"delay_secs": 0.5,
	}).Return(nil).Once()

	c, err := NewBroadlink(Options{
		Encoding: climate.EncodingRaw,
		Data:     "remote.living_room",
		Delay:    500 * time.Millisecond,
		Services: services,
	})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), Text(rawCode, rawCode)))
	services.AssertExpectations(t)
}

func TestBroadlink_PassThrough(t *testing.T) {
	services := &mockServices{}
	services.On("CallService", "remote", "send_command", mock.MatchedBy(func(d map[string]interface{}) bool {
		cmds, ok := d["command"].([]string)
		return ok && len(cmds) == 1 && cmds[0] == "b64:not-even-base64"
	})).Return(nil)

	c, err := NewBroadlink(Options{Encoding: climate.EncodingBase64, Services: services})
	require.NoError(t, err)

	// same encoding and not raw: sent unchanged
	require.NoError(t, c.Send(context.Background(), Text("not-even-base64")))
	services.AssertExpectations(t)
}

func TestXiaomi_Send(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		payload string
		want    string
	}{
		{"native code tagged raw", climate.EncodingXiaomi, "Z6VHADUCAAA", "raw:Z6VHADUCAAA"},
		{"converted to pronto", climate.EncodingRaw, "9000,-4500,560,-560", "pronto:0000 006D 0002 0000 0156 00AB 0015 0015"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services := &mockServices{}
			services.On("CallService", "remote", "send_command", map[string]interface{}{
				"entity_id": "remote.xiaomi",
				"command":   tt.want,
			}).Return(nil).Once()

			c, err := NewXiaomi(Options{Encoding: tt.source, Data: "remote.xiaomi", Services: services})
			require.NoError(t, err)
			require.NoError(t, c.Send(context.Background(), Text(tt.payload)))
			services.AssertExpectations(t)
		})
	}
}

func TestMQTT_SendNormalizesRaw(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", "ir/bedroom/send", "9000,-5000,560").Return(nil).Once()

	c, err := NewMQTT(Options{Encoding: climate.EncodingRaw, Data: "ir/bedroom/send", Publisher: pub})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), Text("9000, -4500, -500, 560")))
	pub.AssertExpectations(t)
}

func TestLOOKin_Send(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	c, err := NewLOOKin(Options{Encoding: climate.EncodingRaw, Data: host, HTTP: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), Text("9000,-4500,560")))
	assert.Equal(t, "/commands/ir/raw/9000%20-4500%20560", gotPath)
}

func TestLOOKin_URL(t *testing.T) {
	c, err := NewLOOKin(Options{Encoding: climate.EncodingPronto, Data: "192.168.1.50"})
	require.NoError(t, err)
	assert.Equal(t,
		"http://192.168.1.50/commands/ir/prontohex/0000%20006D%200001%200000%200156%2000AB",
		c.URL("0000 006D 0001 0000 0156 00AB"))
}

func TestLOOKin_HTTPErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewLOOKin(Options{
		Encoding: climate.EncodingRaw,
		Data:     strings.TrimPrefix(srv.URL, "http://"),
		HTTP:     srv.Client(),
	})
	require.NoError(t, err)

	err = c.Send(context.Background(), Text(rawCode))
	assert.ErrorIs(t, err, ErrTransport)
}

func TestESPHome_Send(t *testing.T) {
	services := &mockServices{}
	services.On("CallService", "esphome", "living_room_send_raw", map[string]interface{}{
		"command": []int{1000, -500, 1000, -500},
	}).Return(nil).Once()

	c, err := NewESPHome(Options{Encoding: climate.EncodingRaw, Data: "living_room_send_raw", Services: services})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), Text(rawCode)))
	services.AssertExpectations(t)
}

func TestSerial_Send(t *testing.T) {
	port := &bufferPort{}
	var gotPort string
	var gotBaud int

	c, err := NewSerial(Options{
		Encoding: climate.EncodingBase64,
		Data:     "/dev/ttyUSB0",
		OpenSerial: func(name string, baud int) (io.WriteCloser, error) {
			gotPort, gotBaud = name, baud
			return port, nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), Text(base64Code)))
	assert.Equal(t, "/dev/ttyUSB0", gotPort)
	assert.Equal(t, DefaultSerialBaud, gotBaud)
	assert.Equal(t, "1005,-487,1005,-487\n", port.String())
	assert.True(t, port.closed)
}

func TestSerial_OpenFailure(t *testing.T) {
	c, err := NewSerial(Options{
		Encoding: climate.EncodingRaw,
		OpenSerial: func(string, int) (io.WriteCloser, error) {
			return nil, errors.New("no such device")
		},
	})
	require.NoError(t, err)

	err = c.Send(context.Background(), Text(rawCode))
	require.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, NameSerial, te.Controller)
	assert.EqualError(t, te.Err, "no such device")
}

func TestSend_GenericAndCode(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", "ir", mock.AnythingOfType("string")).Return(nil).Twice()

	c, err := NewMQTT(Options{Encoding: climate.EncodingGeneric, Data: "ir", Publisher: pub})
	require.NoError(t, err)

	cmd, err := climate.Encode(climate.Toshiba, climate.Request{HVACMode: climate.ModeCool, FanMode: "high", Temperature: 24})
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), Generic(cmd)))

	code, err := ircode.FromGeneric(cmd)
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), Pulses(code)))

	pub.AssertExpectations(t)
	// both paths produce the same payload
	first := pub.Calls[0].Arguments.String(1)
	second := pub.Calls[1].Arguments.String(1)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "4367,-4395,"), first)
}

func TestSend_Errors(t *testing.T) {
	pub := &mockPublisher{}
	c, err := NewMQTT(Options{Encoding: climate.EncodingRaw, Data: "ir", Publisher: pub})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Send(context.Background(), Text(rawCode, rawCode)), ErrMultiPayload)
	assert.Error(t, c.Send(context.Background(), Text()))
	assert.ErrorIs(t, c.Send(context.Background(), Text("abc")), ircode.ErrMalformed)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	g, err := NewMQTT(Options{Encoding: climate.EncodingGeneric, Data: "ir", Publisher: pub})
	require.NoError(t, err)
	assert.Error(t, g.Send(context.Background(), Text(rawCode)))
}

func TestSend_TransportFailure(t *testing.T) {
	services := &mockServices{}
	services.On("CallService", "remote", "send_command", mock.Anything).Return(errors.New("not connected"))

	c, err := NewBroadlink(Options{Encoding: climate.EncodingBase64, Services: services})
	require.NoError(t, err)

	err = c.Send(context.Background(), Text(base64Code))
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "not connected")
}
