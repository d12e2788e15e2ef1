package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "RadPulse API",
        "description": "Radiology study workflow and turnaround-time reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Studies", "description": "Study lifecycle and assignment"},
        {"name": "Documents", "description": "Report artifacts and supporting documents"},
        {"name": "Worklist", "description": "Role-scoped study listings"},
        {"name": "Reports", "description": "Turnaround-time reporting"},
        {"name": "Directory", "description": "Labs, doctors, and patients"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain a bearer token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Fetch the authenticated account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        },
        "/labs": {
            "get": {
                "tags": ["Directory"],
                "summary": "List registered labs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/doctors": {
            "get": {
                "tags": ["Directory"],
                "summary": "List the doctor roster, least-loaded first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients/{id}": {
            "get": {
                "tags": ["Directory"],
                "summary": "Fetch a patient with its lab",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Patient outside the caller's lab"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/studies": {
            "post": {
                "tags": ["Studies"],
                "summary": "Register an uploaded study",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/studies/{id}": {
            "get": {
                "tags": ["Studies"],
                "summary": "Fetch a study with its audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/studies/{id}/status-history": {
            "get": {
                "tags": ["Studies"],
                "summary": "List a study's status history oldest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/studies/{id}/transition": {
            "post": {
                "tags": ["Studies"],
                "summary": "Move a study to a new workflow status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/studies/{id}/assign": {
            "post": {
                "tags": ["Studies"],
                "summary": "Assign or reassign a study to a doctor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition or stale version"},
                    "422": {"description": "Doctor inactive"}
                }
            }
        },
        "/studies/{id}/unassign": {
            "post": {
                "tags": ["Studies"],
                "summary": "Release a study back to the pending pool",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/UnassignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/studies/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List a study's documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Attach a document or report artifact",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Report not allowed in current status"}
                }
            }
        },
        "/studies/{id}/download": {
            "post": {
                "tags": ["Documents"],
                "summary": "Download the latest report, recording the role milestone",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report content"},
                    "404": {"description": "No report uploaded"}
                }
            }
        },
        "/documents/{id}/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a document by ID",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document content"}
                }
            }
        },
        "/documents/{id}": {
            "delete": {
                "tags": ["Documents"],
                "summary": "Delete a document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/documents/{id}/share": {
            "post": {
                "tags": ["Documents"],
                "summary": "Issue a time-limited unauthenticated link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ShareRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/share/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a document via a signed share token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document content"},
                    "401": {"description": "Expired or tampered token"}
                }
            }
        },
        "/worklist": {
            "get": {
                "tags": ["Worklist"],
                "summary": "List studies visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "modality", "in": "query", "type": "string"},
                    {"name": "labId", "in": "query", "type": "string"},
                    {"name": "doctorId", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "dateType", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "perPage", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/worklist/summary": {
            "get": {
                "tags": ["Worklist"],
                "summary": "Category counts for the caller's visible studies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/tat": {
            "get": {
                "tags": ["Reports"],
                "summary": "Aggregate turnaround-time report",
                "parameters": [
                    {"name": "labId", "in": "query", "type": "string"},
                    {"name": "doctorId", "in": "query", "type": "string"},
                    {"name": "modality", "in": "query", "type": "string"},
                    {"name": "dateType", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/tat/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the turnaround-time report as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateStudyRequest": {
            "type": "object",
            "properties": {
                "labId": {"type": "string"},
                "patientId": {"type": "string"},
                "accessionNo": {"type": "string"},
                "modality": {"type": "string"},
                "studyDesc": {"type": "string"},
                "studyDate": {"type": "string"},
                "studyTime": {"type": "string"},
                "priority": {"type": "string", "enum": ["STAT", "URGENT", "NORMAL"]}
            },
            "required": ["labId", "patientId", "accessionNo", "modality"]
        },
        "TransitionRequest": {
            "type": "object",
            "properties": {
                "toStatus": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["toStatus"]
        },
        "AssignRequest": {
            "type": "object",
            "properties": {
                "doctorId": {"type": "string"},
                "priority": {"type": "string", "enum": ["STAT", "URGENT", "NORMAL"]},
                "expectedVersion": {"type": "integer"}
            },
            "required": ["doctorId"]
        },
        "UnassignRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"},
                "expectedVersion": {"type": "integer"}
            }
        },
        "ShareRequest": {
            "type": "object",
            "properties": {
                "ttlMinutes": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
