// Package docs registers the OpenAPI description served at /swagger/*.
// Regenerate with `swag init` after changing handler annotations.
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
                "tags": ["Auth"],
                "summary": "Register a new user",
                "description": "Creates an unverified account. Does not log the user in.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.RegisterResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ValidationErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ValidationErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorBody"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ValidationErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorBody"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Auth"],
                "summary": "Log out",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MessageResponse"}}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Auth"],
                "summary": "Current user",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MeResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorBody"}}
                }
            }
        },
        "/auth/verify-email": {
            "post": {
                "tags": ["Auth"],
                "summary": "Verify email address",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.VerifyEmailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorBody"}}
                }
            }
        },
        "/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chat"],
                "summary": "Ask a model",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorBody"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chat"],
                "summary": "List conversations",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ConversationsResponse"}}}
            }
        },
        "/conversations/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chat"],
                "summary": "Get a conversation",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ConversationResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorBody"}}
                }
            }
        },
        "/models": {
            "get": {
                "tags": ["Chat"],
                "summary": "Available models",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chat"],
                "summary": "Usage statistics",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UsageResponse"}}}
            }
        },
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Service health",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}}
            }
        }
    },
    "definitions": {
        "types.ErrorBody": {"type": "object", "properties": {"error": {"type": "string"}, "request_id": {"type": "string"}}},
        "types.ValidationErrorBody": {"type": "object", "properties": {
            "errors": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
            "request_id": {"type": "string"}}},
        "types.MessageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "types.User": {"type": "object", "properties": {
            "id": {"type": "string"}, "email": {"type": "string"}, "first_name": {"type": "string"}, "last_name": {"type": "string"},
            "is_active": {"type": "boolean"}, "is_verified": {"type": "boolean"}, "created_at": {"type": "string"},
            "last_active": {"type": "string"}, "last_login": {"type": "string"}}},
        "types.RegisterRequest": {"type": "object", "properties": {
            "email": {"type": "string"}, "password": {"type": "string"}, "first_name": {"type": "string"}, "last_name": {"type": "string"}}},
        "types.RegisterResponse": {"type": "object", "properties": {
            "message": {"type": "string"}, "user": {"$ref": "#/definitions/types.User"}, "verification_token": {"type": "string"}}},
        "types.LoginRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "types.LoginResponse": {"type": "object", "properties": {
            "message": {"type": "string"}, "token": {"type": "string"}, "user": {"$ref": "#/definitions/types.User"}}},
        "types.MeResponse": {"type": "object", "properties": {"user": {"$ref": "#/definitions/types.User"}}},
        "types.VerifyEmailRequest": {"type": "object", "properties": {"token": {"type": "string"}}},
        "types.ChatMessage": {"type": "object", "properties": {"role": {"type": "string"}, "content": {"type": "string"}}},
        "types.ChatRequest": {"type": "object", "properties": {
            "model": {"type": "string", "enum": ["openai", "gemini", "claude"]},
            "messages": {"type": "array", "items": {"$ref": "#/definitions/types.ChatMessage"}},
            "conversation_id": {"type": "string"}}},
        "types.ChatResponse": {"type": "object", "properties": {
            "response": {"type": "string"}, "model": {"type": "string"}, "conversation_id": {"type": "string"},
            "status": {"type": "string"},
            "metadata": {"type": "object", "properties": {"tokens_used": {"type": "integer"}, "response_time": {"type": "number"}}}}},
        "types.Conversation": {"type": "object", "properties": {
            "id": {"type": "string"}, "title": {"type": "string"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"},
            "is_active": {"type": "boolean"}, "message_count": {"type": "integer"},
            "messages": {"type": "array", "items": {"type": "object"}}}},
        "types.ConversationsResponse": {"type": "object", "properties": {
            "conversations": {"type": "array", "items": {"$ref": "#/definitions/types.Conversation"}}}},
        "types.ConversationResponse": {"type": "object", "properties": {"conversation": {"$ref": "#/definitions/types.Conversation"}}},
        "types.ModelsResponse": {"type": "object", "properties": {"models": {"type": "array", "items": {"type": "object", "properties": {
            "id": {"type": "string"}, "name": {"type": "string"}, "description": {"type": "string"}, "status": {"type": "string"}}}}}},
        "types.UsageResponse": {"type": "object", "properties": {"period": {"type": "string"}, "usage": {"type": "array", "items": {"type": "object", "properties": {
            "model": {"type": "string"}, "requests": {"type": "integer"}, "tokens": {"type": "integer"},
            "cost": {"type": "number"}, "avg_response_time": {"type": "number"}}}}}},
        "types.HealthResponse": {"type": "object", "properties": {
            "status": {"type": "string"}, "timestamp": {"type": "string"}, "version": {"type": "string"},
            "request_id": {"type": "string"}, "services": {"type": "object", "additionalProperties": {"type": "string"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "MultiGenQA API",
	Description:      "Authenticated proxy in front of OpenAI, Gemini and Claude.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
