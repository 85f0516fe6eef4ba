// Package docs holds the OpenAPI description served at /api/v1/docs.
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
        "/auth/register": {
            "post": {
                "description": "Creates an account. Only role \"admin\" is honored; anything else registers a user.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [
                    {"description": "Registration payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.PublicUser"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Exchanges credentials for a bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/task_manager.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Admins see every task; users see only their own.",
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "List tasks",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Task"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Create task",
                "parameters": [
                    {"description": "Task", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.createTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Partial update. Only the owner or an admin may update.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Update task",
                "parameters": [
                    {"type": "string", "description": "Task id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": false, "schema": {"$ref": "#/definitions/handlers.updateTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/task_manager.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Only the owner or an admin may delete.",
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Delete task",
                "parameters": [
                    {"type": "string", "description": "Task id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/task_manager.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            }
        },
        "/audit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Admin only. A date-only 'to' is end-of-day inclusive.",
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "List audit events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range", "name": "to", "in": "query"},
                    {"enum": ["REGISTER", "LOGIN", "TASK_CREATE", "TASK_UPDATE", "TASK_DELETE"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/task_manager.AuditListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/task_manager.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.registerRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Alice"},
                "email": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string", "example": "s3cr3t!"},
                "role": {"type": "string", "example": "user"}
            }
        },
        "handlers.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string", "example": "s3cr3t!"}
            }
        },
        "handlers.createTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "example": "Write report"},
                "description": {"type": "string", "example": "Quarterly numbers"},
                "status": {"type": "string", "example": "Pending"}
            }
        },
        "handlers.updateTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "models.PublicUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "admin"]}
            }
        },
        "models.Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.AuditEvent": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "occurred_at": {"type": "string"},
                "type": {"type": "string"},
                "actor_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "metadata": {}
            }
        },
        "task_manager.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "task_manager.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "task_manager.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/task_manager.FieldError"}}
            }
        },
        "task_manager.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/models.PublicUser"}
            }
        },
        "task_manager.AuditListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/models.AuditEvent"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Task Manager API",
	Description:      "Multi-user task tracker with bearer-token auth and user/admin roles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
