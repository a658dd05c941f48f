package service

import "errors"

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrAuthorization = errors.New("not authorized")
	ErrUpstream      = errors.New("upstream failure")
)

// kindError is a sentinel that also matches its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = newError(ErrValidation, "invalid rider id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = newError(ErrValidation, "invalid driver id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = newError(ErrValidation, "invalid ride id")

	// ErrInvalidPickupLocation is returned when the pickup is missing or its coordinates are out of range.
	ErrInvalidPickupLocation = newError(ErrValidation, "invalid pickup location")

	// ErrInvalidDestinationLocation is returned when the destination is missing or its coordinates are out of range.
	ErrInvalidDestinationLocation = newError(ErrValidation, "invalid destination location")

	// ErrInvalidVehicleClass is returned for an unknown vehicle class.
	ErrInvalidVehicleClass = newError(ErrValidation, "invalid vehicle class")

	// ErrInvalidDistance is returned when a route distance is NaN or infinite.
	ErrInvalidDistance = newError(ErrValidation, "invalid distance")

	// ErrInvalidOTP is returned when the OTP is not a 6-digit string.
	ErrInvalidOTP = newError(ErrValidation, "invalid otp")

	// ErrInvalidName is returned when a party name is shorter than 3 characters.
	ErrInvalidName = newError(ErrValidation, "name must be at least 3 characters")

	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = newError(ErrValidation, "invalid email")

	// ErrInvalidVehicle is returned when vehicle details fail validation.
	ErrInvalidVehicle = newError(ErrValidation, "invalid vehicle")

	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = newError(ErrValidation, "email already registered")

	// ErrInvalidPaymentAmount is returned when payment amount is invalid.
	ErrInvalidPaymentAmount = newError(ErrValidation, "invalid payment amount")

	// ErrRideNotFound is returned when the ride does not exist.
	ErrRideNotFound = newError(ErrNotFound, "ride not found")

	// ErrRiderNotFound is returned when the rider does not exist.
	ErrRiderNotFound = newError(ErrNotFound, "rider not found")

	// ErrDriverNotFound is returned when the driver does not exist.
	ErrDriverNotFound = newError(ErrNotFound, "driver not found")

	// ErrPaymentNotFound is returned when a ride has no payment yet.
	ErrPaymentNotFound = newError(ErrNotFound, "payment not found")

	// ErrRideNotPending is returned when accepting a ride that is no longer pending.
	ErrRideNotPending = newError(ErrStateConflict, "ride is not pending")

	// ErrRideNotAccepted is returned when starting or cancelling a ride that is not accepted.
	ErrRideNotAccepted = newError(ErrStateConflict, "ride is not accepted")

	// ErrRideNotOngoing is returned when ending a ride that is not ongoing.
	ErrRideNotOngoing = newError(ErrStateConflict, "ride is not ongoing")

	// ErrRideNotActive is returned when route info is reported for a ride that is neither accepted nor ongoing.
	ErrRideNotActive = newError(ErrStateConflict, "ride is not active")

	// ErrOtpMismatch is returned when the OTP does not match the ride's.
	ErrOtpMismatch = newError(ErrStateConflict, "otp does not match")

	// ErrNotRideOwner is returned when a driver acts on a ride assigned to someone else.
	ErrNotRideOwner = newError(ErrAuthorization, "driver is not assigned to this ride")

	// ErrNotRideParty is returned when the caller is neither the ride's rider nor its driver.
	ErrNotRideParty = newError(ErrAuthorization, "not a party to this ride")

	// ErrGeocodingFailed is returned when a place name cannot be resolved.
	ErrGeocodingFailed = newError(ErrUpstream, "geocoding failed")

	// ErrRoutingFailed is returned when distance and duration cannot be computed.
	ErrRoutingFailed = newError(ErrUpstream, "routing failed")
)
