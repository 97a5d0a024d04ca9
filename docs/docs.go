// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/bookings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Reserve seats for a show",
                "parameters": [
                    {"description": "Booking request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bookings.CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Seats already taken or invalid request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Event, venue or timing not found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/bookings/availability/{eventId}/{venueId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Seats taken for a show",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "eventId", "in": "path", "required": true},
                    {"type": "string", "description": "Venue ID", "name": "venueId", "in": "path", "required": true},
                    {"type": "string", "description": "Timing ID", "name": "timingId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/bookings/event/{eventId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Confirmed bookings for an event",
                "parameters": [{"type": "string", "description": "Event ID", "name": "eventId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/bookings/user/{userId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Confirmed bookings held by a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/bookings/all": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Every confirmed booking",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        },
        "/reservations/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Get a reservation",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Cancel a pending reservation",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Reservation is not pending", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/payments/checkout-session": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Start Stripe checkout for a pending reservation",
                "parameters": [
                    {"description": "Reservation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/payments.CreateCheckoutSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "503": {"description": "Payment provider unavailable", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/payments/webhook": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Stripe webhook receiver",
                "parameters": [{"type": "string", "description": "Stripe signature", "name": "Stripe-Signature", "in": "header", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Signature verification failed", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/companies": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["companies"],
                "summary": "Register the organiser's company for verification",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Already registered", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/wishlist": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["wishlist"],
                "summary": "List the caller's saved events",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}}
            }
        }
    },
    "definitions": {
        "bookings.CreateBookingRequest": {
            "type": "object",
            "required": ["eventId", "venueId", "seats"],
            "properties": {
                "eventId": {"type": "string"},
                "venueId": {"type": "string"},
                "timingId": {"type": "string"},
                "userId": {"type": "string"},
                "seats": {"type": "array", "items": {"type": "string"}}
            }
        },
        "payments.CreateCheckoutSessionRequest": {
            "type": "object",
            "required": ["reservationId"],
            "properties": {"reservationId": {"type": "string"}}
        },
        "response.StandardApiResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "status_code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "errors": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "BOOKD API",
	Description:      "Seat reservation backend: catalog, booking ledger and Stripe checkout.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
