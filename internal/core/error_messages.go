package core

// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file into smaller files
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure file is comma-separated with consistent columns
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV or Excel file to upload
//	FILE005 - Empty file: The uploaded file has no header row
//	          Action: Please upload a file with a header row
//	FILE006 - Unsupported format: Only .csv and .xlsx files are accepted
//	          Action: Save the file as CSV or Excel (.xlsx) and upload it again
//	FILE007 - Unreadable spreadsheet: The workbook could not be opened
//	          Action: Open the file in Excel and save it again as .xlsx
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Serialization: The data cannot be written in the chosen format
//	         Action: Choose the other format or clean the affected column
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found: A selected column does not exist
//	         Action: Reload the page and choose columns again
//
// # Chart Messages (CHT001-CHT099)
//
//	CHT001 - Not enough numeric data: fewer than two numeric columns selected
//	         Action: Select at least two numeric columns to see a chart
//	         This one is informational and is never shown as an error.
//
// # Session Errors (SES001-SES099)
//
//	SES001 - File not in session: The file is not part of this session
//	         Action: Upload the file again
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the original
// technical error.
//
// # Matching
//
// Sentinel errors are matched first with errors.Is, so wrapped errors map
// correctly. Text patterns are a fallback for errors produced outside this
// package (net/http, context). Patterns are matched case-insensitively and the
// first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps either a sentinel error or a text pattern to a user message.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		target:  ErrFileTooLarge,
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		target:  ErrInvalidCSV,
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		target:  ErrNoFile,
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		target:  ErrEmptyFile,
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no header row",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		target:  ErrUnsupportedFormat,
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Unsupported file format",
			Action:  "Save the file as CSV or Excel (.xlsx) and upload it again",
			Code:    "FILE006",
		},
	},
	{
		target:  ErrUnreadableWorkbook,
		pattern: "unreadable spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be opened",
			Action:  "Open the file in Excel and save it again as .xlsx",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Table Errors
	// =========================================================================
	{
		target:  ErrSerialization,
		pattern: "cannot serialize",
		msg: UserMessage{
			Message: "The data cannot be written in the chosen format",
			Action:  "Choose the other format or clean the affected column",
			Code:    "EXP001",
		},
	},
	{
		target:  ErrColumnNotFound,
		pattern: "column not found",
		msg: UserMessage{
			Message: "A selected column does not exist",
			Action:  "Reload the page and choose columns again",
			Code:    "COL001",
		},
	},
	{
		target:  ErrEmptyNumericSelection,
		pattern: "not enough numeric columns",
		msg: UserMessage{
			Message: "Only one numeric column available for visualization or no valid numeric data",
			Action:  "Select at least two numeric columns to see a chart",
			Code:    "CHT001",
		},
	},
	{
		target:  ErrEntryNotFound,
		pattern: "file not in session",
		msg: UserMessage{
			Message: "This file is not part of your session",
			Action:  "Upload the file again",
			Code:    "SES001",
		},
	},

	// =========================================================================
	// Upload Errors
	// =========================================================================
	{
		target:  ErrTooManyUploads,
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		target:  context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		target:  context.DeadlineExceeded,
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinels are checked with errors.Is before any text pattern is tried.
//
// Example:
//
//	_, err := DetectFormat("notes.txt")
//	msg := MapError(err)
//	// msg.Code == "FILE006"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, ep := range errorPatterns {
		if ep.target != nil && errors.Is(err, ep.target) {
			return ep.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific catalogue entry
// rather than the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsInformational reports whether err should be shown as a notice rather than
// an error. Only the chart's not-enough-data condition qualifies.
func IsInformational(err error) bool {
	return errors.Is(err, ErrEmptyNumericSelection)
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps err with its mapped user message. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
