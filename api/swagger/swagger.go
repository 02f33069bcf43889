package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Appointments API",
        "description": "Guardian appointment rescheduling with slot suggestions and live dashboard snapshots. All times are UTC.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "tags": [
        {"name": "Appointments", "description": "Rescheduling, roster and live updates"},
        {"name": "Health", "description": "Probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe (database and Redis)",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/api/v1/reschedule": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Reschedule a guardian appointment",
                "description": "Moves the guardian's appointment to the requested slot, or answers with readable alternatives.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Either {message: \"Appointment rescheduled\"} or {alternativeTimesText}", "schema": {"$ref": "#/definitions/RescheduleResponse"}},
                    "400": {"description": "Missing or malformed fields", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "404": {"description": "No appointment found", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "409": {"description": "Slot taken by a concurrent request", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/MessageBody"}}
                }
            }
        },
        "/api/v1/appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List appointments ordered by datetime",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AppointmentListEnvelope"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/appointments/export": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Export the appointment roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Roster file", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/appointments/stream": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Live appointment snapshots (Server-Sent Events)",
                "description": "Emits a snapshot event with every appointment on connect and after each change, plus periodic heartbeat events.",
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "Event stream", "schema": {"type": "array", "items": {"$ref": "#/definitions/Appointment"}}},
                    "503": {"description": "Live updates unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/grade-levels": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List grade levels",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string", "example": "+1 (505) 415-9991"},
                "ssn": {"type": "string", "description": "Used instead of phone when MATCH_STRATEGY=ssn"},
                "date": {"type": "string", "example": "2023-09-01"},
                "time": {"type": "string", "example": "10:15:00"}
            }
        },
        "RescheduleResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "alternativeTimesText": {"type": "string", "example": "9:00 AM, 9:15 AM or 9:30 AM"}
            }
        },
        "MessageBody": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "GradeLevel": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "01"},
                "description": {"type": "string", "example": "First Grade"}
            }
        },
        "Appointment": {
            "type": "object",
            "properties": {
                "uid": {"type": "string"},
                "datetime": {"type": "string", "format": "date-time"},
                "guardianName": {"type": "string"},
                "guardianEmail": {"type": "string"},
                "guardianPhone": {"type": "string"},
                "guardianSsn": {"type": "string"},
                "studentName": {"type": "string"},
                "studentGradeLevel": {"$ref": "#/definitions/GradeLevel"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "AppointmentListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Appointment"}},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
