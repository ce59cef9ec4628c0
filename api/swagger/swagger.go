package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FYP Scheduling API",
        "description": "Course timetabling engine: generation, conflicts, publishing, workload",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Generation, drafts and publishing"},
        {"name": "Conflicts", "description": "Detection and resolution"},
        {"name": "Workload", "description": "Per-instructor reporting and exports"}
    ],
    "paths": {
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a candidate timetable for a scope",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScopeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/save": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Replace the draft timetable for a scope",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the draft timetable for a scope",
                "parameters": [
                    {"name": "academicYear", "in": "query", "type": "string", "required": true},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/published": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the published timetable for a scope",
                "parameters": [
                    {"name": "academicYear", "in": "query", "type": "string", "required": true},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/items/{id}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Edit a single draft entry",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/publish": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Publish the draft timetable for a scope",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScopeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Nothing to publish", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/detect": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Run conflict detection over the draft timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScopeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List recorded conflicts",
                "parameters": [
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/{id}/resolve": {
            "patch": {
                "tags": ["Conflicts"],
                "summary": "Mark one conflict as resolved",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/auto-resolve": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Resolve pending conflicts that no longer reproduce",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScopeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workload": {
            "get": {
                "tags": ["Workload"],
                "summary": "Per-instructor workload for a scope",
                "parameters": [
                    {"name": "academicYear", "in": "query", "type": "string", "required": true},
                    {"name": "semester", "in": "query", "type": "string", "required": true},
                    {"name": "publishedOnly", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workload/export": {
            "post": {
                "tags": ["Workload"],
                "summary": "Enqueue a CSV or PDF export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Workload"],
                "summary": "Poll an export job",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Workload"],
                "summary": "Download a finished export artifact",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "ScopeRequest": {
            "type": "object",
            "required": ["academicYear", "semester"],
            "properties": {
                "academicYear": {"type": "string"},
                "semester": {"type": "string"}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "required": ["academicYear", "semester"],
            "properties": {
                "academicYear": {"type": "string"},
                "semester": {"type": "string"},
                "items": {"type": "array", "items": {"type": "object"}}
            }
        },
        "ExportReportRequest": {
            "type": "object",
            "required": ["academicYear", "semester", "kind", "format"],
            "properties": {
                "academicYear": {"type": "string"},
                "semester": {"type": "string"},
                "kind": {"type": "string", "enum": ["workload", "timetable"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "publishedOnly": {"type": "boolean"}
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
