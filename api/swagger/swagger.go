package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Regulatory Compliance Monitoring API",
        "description": "Backend for tracking regulatory circulars and department compliance",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, signup and OTP verification"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Circulars", "description": "Regulatory circular registry"},
        {"name": "Submissions", "description": "Compliance evidence and review workflow"},
        {"name": "Notifications", "description": "In-app notification feed"},
        {"name": "Chat", "description": "Direct messages between staff"},
        {"name": "Dashboard", "description": "Compliance aggregations"},
        {"name": "Reports", "description": "PDF and CSV exports"},
        {"name": "Files", "description": "Signed attachment downloads"},
        {"name": "Admin", "description": "Operational endpoints"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Start self-service registration",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "202": {"description": "OTP emailed"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/verify-otp": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Complete registration with the emailed code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created"},
                    "401": {"description": "Wrong or expired code"}
                }
            }
        },
        "/auth/send-otp": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Resend the verification code for a pending signup",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "202": {"description": "Code sent"},
                    "404": {"description": "No pending signup"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Authentication"],
                "summary": "Update the caller's profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Insufficient role"}
                }
            }
        },
        "/users/{id}/toggle": {
            "put": {
                "tags": ["Users"],
                "summary": "Toggle a user's active flag",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Insufficient role"}
                }
            }
        },
        "/circulars": {
            "get": {
                "tags": ["Circulars"],
                "summary": "List circulars visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "regulation_type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "expired", "completed"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Circulars"],
                "summary": "Register a circular",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "payload", "in": "formData", "type": "string", "required": true},
                    {"name": "attachment", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Insufficient role"}
                }
            }
        },
        "/circulars/{id}": {
            "get": {
                "tags": ["Circulars"],
                "summary": "Get a circular with derived status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "circular_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "File a submission",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "circular_id", "in": "formData", "type": "string", "required": true},
                    {"name": "remarks", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate submission or circular completed"}
                }
            }
        },
        "/submissions/mine": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List the caller's own submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "circular_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submissions/{id}/download": {
            "get": {
                "tags": ["Files"],
                "summary": "Download a submission's evidence file",
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "404": {"description": "No file on this submission"}
                }
            }
        },
        "/submissions/{id}/review": {
            "put": {
                "tags": ["Submissions"],
                "summary": "Approve or reject a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/circulars/{id}/download": {
            "get": {
                "tags": ["Files"],
                "summary": "Download a circular's attachment",
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "404": {"description": "No attachment on this circular"}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Role-scoped compliance statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/accreditation": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Accreditation readiness per regulatory body",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Insufficient role"}
                }
            }
        },
        "/notifications/{id}": {
            "delete": {
                "tags": ["Notifications"],
                "summary": "Delete a notification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/chat/messages": {
            "post": {
                "tags": ["Chat"],
                "summary": "Send a message to a user or a department channel",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "recipient_id", "in": "formData", "type": "string"},
                    {"name": "group", "in": "formData", "type": "string"},
                    {"name": "body", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Hierarchy forbids this exchange"}
                }
            }
        },
        "/chat/download/{id}": {
            "get": {
                "tags": ["Chat"],
                "summary": "Download a file shared in chat",
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "404": {"description": "Message has no file"}
                }
            }
        },
        "/reports/data": {
            "get": {
                "tags": ["Reports"],
                "summary": "Institution-wide compliance roll-up as JSON",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/annual/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Institution-wide compliance report as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/files/download": {
            "get": {
                "tags": ["Files"],
                "summary": "Download a file via a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
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
            }
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["principal", "hod", "faculty"]},
                "department": {"type": "string"}
            }
        },
        "VerifyOTPRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["approve", "reject"]},
                "note": {"type": "string"}
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
