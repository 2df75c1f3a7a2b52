package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"moralsim/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCode_DomainSentinels(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{core.NewTemplateNotFoundError("nope"), CodeTemplateNotFound},
		{core.NewInvalidTransitionError("complete", "answer"), CodeInvalidTransition},
		{core.NewProviderError("openai", fmt.Errorf("timeout")), CodeProviderError},
		{core.NewDatasetUnavailableError("x.csv", nil), CodeDatasetUnavailable},
		{fmt.Errorf("wrapped: %w", core.ErrGenerationInProgress), CodeGenerationBusy},
		{stderrors.New("plain"), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, GetCode(tt.err), tt.err.Error())
	}
}

func TestFromDomain_PreservesSentinel(t *testing.T) {
	err := FromDomain(core.NewTemplateNotFoundError("nope"))
	assert.True(t, IsAppError(err))
	assert.True(t, stderrors.Is(err, core.ErrTemplateNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(GetCode(err)))

	assert.Nil(t, FromDomain(nil))
	plain := stderrors.New("plain")
	assert.Equal(t, plain, FromDomain(plain))
}

func TestWrap_KeepsCode(t *testing.T) {
	base := ProviderError("gemini", stderrors.New("bad json"))
	err := Wrap(base, "rewrite failed")
	assert.Equal(t, CodeProviderError, GetCode(err))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(GetCode(err)))
	assert.Nil(t, Wrap(nil, "x"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(CodeDatasetUnavailable))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeInvalidTransition))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeInvalidInput))
}
