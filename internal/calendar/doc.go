// Package calendar fetches events from the Google Calendar API on behalf
// of individual users. Authorization is delegated to the google package;
// this package only builds the API call and maps the response into the
// domain event type.
package calendar
