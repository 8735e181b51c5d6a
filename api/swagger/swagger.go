package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Materials Portal API",
        "description": "Catalog, upload and review endpoints backed by a list of interchangeable materials API deployments",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Materials", "description": "Approved catalog, exports and student uploads"},
        {"name": "Uploads", "description": "Uploader lookups and review status"},
        {"name": "Admin", "description": "Review queue; mutations need confirm=yes or an X-Confirm header"},
        {"name": "Health", "description": "Materials API candidate probing"}
    ],
    "paths": {
        "/materials": {
            "get": {
                "tags": ["Materials"],
                "summary": "List approved materials",
                "description": "Degrades to an empty list when every candidate is unreachable.",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/materials/export": {
            "get": {
                "tags": ["Materials"],
                "summary": "Export the filtered catalog",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads": {
            "post": {
                "tags": ["Materials"],
                "summary": "Upload a study material",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "title", "in": "formData", "required": true, "type": "string"},
                    {"name": "description", "in": "formData", "type": "string"},
                    {"name": "subject", "in": "formData", "required": true, "type": "string"},
                    {"name": "semester", "in": "formData", "required": true, "type": "string"},
                    {"name": "groupName", "in": "formData", "type": "string"},
                    {"name": "uploadYear", "in": "formData", "type": "string"},
                    {"name": "type", "in": "formData", "required": true, "type": "string"},
                    {"name": "uploaderName", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Rejected by a backend", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "All backends unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/user/uploads": {
            "get": {
                "tags": ["Uploads"],
                "summary": "Materials uploaded under a name",
                "parameters": [
                    {"name": "uploaderName", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing name", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/user/status/{id}": {
            "get": {
                "tags": ["Uploads"],
                "summary": "Review status of one upload",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/upstream/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Probe the materials API candidates",
                "responses": {
                    "200": {"description": "A candidate answered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "All candidates offline", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/materials": {
            "get": {
                "tags": ["Admin"],
                "summary": "Pending and approved materials",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "A partition could not be fetched", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/approve/{id}": {
            "put": {
                "tags": ["Admin"],
                "summary": "Approve a material",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "confirm", "in": "query", "type": "string"},
                    {"name": "X-Confirm", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Refreshed dashboard", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown material", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "428": {"description": "Not confirmed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/delete/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Permanently delete a material",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "confirm", "in": "query", "type": "string"},
                    {"name": "X-Confirm", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Refreshed dashboard", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "428": {"description": "Not confirmed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "MaterialCard": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "subject": {"type": "string"},
                "semester": {"type": "string"},
                "year": {"type": "string"},
                "type": {"type": "string"},
                "icon": {"type": "string"},
                "uploaderName": {"type": "string"},
                "badge": {"type": "string", "enum": ["approved", "pending", "unknown"]},
                "badgeLabel": {"type": "string"},
                "fileUrl": {"type": "string"},
                "downloadable": {"type": "boolean"},
                "views": {"type": "integer"},
                "downloads": {"type": "integer"},
                "progress": {"type": "number"}
            }
        },
        "ListingView": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["loading", "empty", "list"]},
                "selection": {"type": "object"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/MaterialCard"}},
                "total": {"type": "integer"},
                "generation": {"type": "integer"}
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
