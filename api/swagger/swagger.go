package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "DeskInspect API",
        "description": "Thesis submission, evaluation, and resubmission tracking backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, registration, profile"},
        {"name": "Thesis", "description": "Submission and resubmission version chains"},
        {"name": "Notifications", "description": "In-app notifications with best-effort email"},
        {"name": "Events", "description": "Academic calendar and deadlines"},
        {"name": "Folders", "description": "Scheduled submission folder provisioning"},
        {"name": "Reports", "description": "Faculty evaluation reports"},
        {"name": "Dashboard", "description": "Admin aggregations"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/thesis/submit": {
            "post": {
                "tags": ["Thesis"],
                "summary": "Submit initial thesis",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitThesisRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "409": {"description": "Thesis already submitted"}
                }
            }
        },
        "/thesis/resubmit": {
            "post": {
                "tags": ["Thesis"],
                "summary": "Submit revised thesis",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitResubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Resubmission was not requested"},
                    "403": {"description": "Student mismatch"},
                    "404": {"description": "Original thesis not found"}
                }
            }
        },
        "/thesis/request-resubmission": {
            "post": {
                "tags": ["Thesis"],
                "summary": "Request thesis resubmission",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestResubmissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the supervising faculty"},
                    "404": {"description": "Thesis not found"}
                }
            }
        },
        "/thesis/{id}/versions": {
            "get": {
                "tags": ["Thesis"],
                "summary": "Thesis version history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Thesis not found"}
                }
            }
        },
        "/thesis/resubmission-status/{studentId}": {
            "get": {
                "tags": ["Thesis"],
                "summary": "Outstanding resubmission request",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create event",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "parameters": [
                    {"name": "email", "in": "query", "type": "string"},
                    {"name": "userId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{id}/send": {
            "post": {
                "tags": ["Reports"],
                "summary": "Send report to student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Report already sent"},
                    "404": {"description": "Report not found"}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Headline counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubmitThesisRequest": {
            "type": "object",
            "required": ["studentName", "studentId", "department", "fileUrl", "supervisorId"],
            "properties": {
                "studentName": {"type": "string"},
                "studentId": {"type": "string"},
                "department": {"type": "string"},
                "fileUrl": {"type": "string"},
                "supervisorId": {"type": "string"}
            }
        },
        "SubmitResubmissionRequest": {
            "type": "object",
            "required": ["originalThesisId", "studentId", "fileUrl"],
            "properties": {
                "originalThesisId": {"type": "string"},
                "studentId": {"type": "string"},
                "fileUrl": {"type": "string"},
                "studentName": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "RequestResubmissionRequest": {
            "type": "object",
            "required": ["thesisId", "reason", "facultyId"],
            "properties": {
                "thesisId": {"type": "string"},
                "reason": {"type": "string"},
                "facultyId": {"type": "string"}
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
                "pagination": {"type": "object"},
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
