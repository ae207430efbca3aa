package model

import "fmt"

// ConfigurationError reports a missing or invalid required setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: %s is required", e.Setting)
	}
	return fmt.Sprintf("config: %s: %s", e.Setting, e.Reason)
}

// TransportError wraps a network failure or a non-2xx response with an unusable body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnknownCardError means the provider answered without an entry for the card.
type UnknownCardError struct {
	CardID int64
	Body   string
}

func (e *UnknownCardError) Error() string {
	return fmt.Sprintf("card %d not present in balance response", e.CardID)
}

// RemoteBalanceError carries the error message reported by the balance provider.
type RemoteBalanceError struct {
	CardID  int64
	Message string
}

func (e *RemoteBalanceError) Error() string {
	return fmt.Sprintf("balance provider error for card %d: %s", e.CardID, e.Message)
}

// MalformedResponseError means an expected field is missing or has the wrong shape.
type MalformedResponseError struct {
	Field string
	Body  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: field %q: %s", e.Field, e.Body)
}

// SmsGatewayError carries the code of an "ERROR:<code>" gateway reply.
type SmsGatewayError struct {
	Code string
}

func (e *SmsGatewayError) Error() string {
	return "sms gateway error: " + e.Code
}

// UnexpectedResponseError is returned when the gateway reply matches no known status.
type UnexpectedResponseError struct {
	Body string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected gateway response: %q", e.Body)
}

// StorageError wraps any failure of the balance store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
