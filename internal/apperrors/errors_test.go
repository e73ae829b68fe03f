package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOfDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("place bid: %w", NewContractorNotEligible(ReasonInsufficientCredits))
	require.Equal(t, CodeNotEligible, CodeOf(wrapped))

	var notEligible *ContractorNotEligible
	require.True(t, errors.As(wrapped, &notEligible))
	require.Equal(t, "Insufficient credits.", notEligible.Reason)

	require.Equal(t, CodeForbidden, CodeOf(NewAgentNotAuthorized("CREATE", "BOOKINGS")))
	require.Equal(t, CodeInvalidArgument, CodeOf(InvalidArgument("invalid status %q", "x")))
	require.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	require.Equal(t, Code(""), CodeOf(nil))
}

func TestDomainErrorMessages(t *testing.T) {
	require.Equal(t,
		"Contractor not eligible to place bid. Reason: Account disabled.",
		NewContractorNotEligible("").Error())
	require.Equal(t,
		"Agent not authorized to perform action UPDATE on BOOKINGS.",
		NewAgentNotAuthorized("UPDATE", "BOOKINGS").Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeInternal, cause, "load bids")
	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodeInternal))
	require.Equal(t, http.StatusInternalServerError, MetadataFor(err.Code()).HTTPStatus)
	require.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeNotEligible).HTTPStatus)
	require.Equal(t, http.StatusInternalServerError, MetadataFor(Code("unknown")).HTTPStatus)
}
