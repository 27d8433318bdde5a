// Package docs registers the OpenAPI document served at /api/v1/docs/swagger.json
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
        "/api/v1/public/contact": {"post": {"tags": ["Public"], "summary": "Submit contact form", "responses": {"201": {"description": "Lead created"}, "400": {"description": "Validation error"}}}},
        "/api/v1/public/lead-capture": {"post": {"tags": ["Public"], "summary": "Submit lead capture form", "responses": {"201": {"description": "Lead created"}, "400": {"description": "Validation error"}}}},
        "/api/v1/public/quick-quote": {"post": {"tags": ["Public"], "summary": "Submit quick quote form", "responses": {"201": {"description": "Lead created"}, "400": {"description": "Validation error"}}}},
        "/api/v1/public/conversions": {"post": {"tags": ["Public"], "summary": "Track a conversion event", "responses": {"202": {"description": "Accepted"}}}},
        "/api/v1/public/services": {"get": {"tags": ["Public"], "summary": "List active services", "responses": {"200": {"description": "Services"}}}},
        "/api/v1/public/settings": {"get": {"tags": ["Public"], "summary": "Public site settings", "responses": {"200": {"description": "Settings"}}}},
        "/api/v1/staff/auth/captcha/init": {"post": {"tags": ["Staff Auth"], "summary": "Issue a login captcha", "responses": {"200": {"description": "Challenge"}}}},
        "/api/v1/staff/auth/login": {"post": {"tags": ["Staff Auth"], "summary": "Staff login", "responses": {"200": {"description": "Session"}, "401": {"description": "Invalid credentials"}}}},
        "/api/v1/staff/auth/refresh": {"post": {"tags": ["Staff Auth"], "summary": "Refresh a session", "responses": {"200": {"description": "Session"}, "401": {"description": "Invalid token"}}}},
        "/api/v1/staff/auth/logout": {"post": {"tags": ["Staff Auth"], "summary": "Revoke the session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Logged out"}}}},
        "/api/v1/staff/leads": {
            "get": {"tags": ["Staff Leads"], "summary": "List leads", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Leads"}}},
            "post": {"tags": ["Staff Leads"], "summary": "Create a lead", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Lead created"}}}
        },
        "/api/v1/staff/leads/bulk": {"post": {"tags": ["Staff Leads"], "summary": "Apply a bulk action", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Affected count"}}}},
        "/api/v1/staff/leads/{id}": {
            "get": {"tags": ["Staff Leads"], "summary": "Get a lead", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Lead"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Staff Leads"], "summary": "Update a lead", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Lead"}}},
            "delete": {"tags": ["Staff Leads"], "summary": "Delete a lead", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Deleted"}}}
        },
        "/api/v1/staff/leads/{id}/status": {"post": {"tags": ["Staff Leads"], "summary": "Change lead status", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Lead"}, "409": {"description": "Invalid transition"}}}},
        "/api/v1/staff/quotes": {
            "get": {"tags": ["Staff Quotes"], "summary": "List quotes", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Quotes"}}},
            "post": {"tags": ["Staff Quotes"], "summary": "Create a quote", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Quote created"}, "409": {"description": "Quote number conflict"}}}
        },
        "/api/v1/staff/quotes/{id}": {
            "get": {"tags": ["Staff Quotes"], "summary": "Get a quote", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Quote"}}},
            "put": {"tags": ["Staff Quotes"], "summary": "Update a quote", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Quote"}, "409": {"description": "Quote locked"}}},
            "delete": {"tags": ["Staff Quotes"], "summary": "Delete a quote", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Deleted"}}}
        },
        "/api/v1/staff/quotes/{id}/status": {"post": {"tags": ["Staff Quotes"], "summary": "Change quote status", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Quote"}, "409": {"description": "Invalid transition"}}}},
        "/api/v1/staff/quotes/{id}/recalculate": {"post": {"tags": ["Staff Quotes"], "summary": "Recalculate totals", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Quote"}}}},
        "/api/v1/staff/quotes/{id}/items": {"post": {"tags": ["Staff Quotes"], "summary": "Add a line item", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Quote"}, "409": {"description": "Quote locked"}}}},
        "/api/v1/staff/quotes/{id}/items/{item_id}": {
            "put": {"tags": ["Staff Quotes"], "summary": "Update a line item", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"type": "integer", "name": "item_id", "in": "path", "required": true}], "responses": {"200": {"description": "Quote"}}},
            "delete": {"tags": ["Staff Quotes"], "summary": "Remove a line item", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"type": "integer", "name": "item_id", "in": "path", "required": true}], "responses": {"200": {"description": "Quote"}}}
        },
        "/api/v1/staff/services": {
            "get": {"tags": ["Staff Services"], "summary": "List services", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Services"}}},
            "post": {"tags": ["Staff Services"], "summary": "Create a service", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Service created"}}}
        },
        "/api/v1/staff/services/{id}": {"put": {"tags": ["Staff Services"], "summary": "Update a service", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Service"}}}},
        "/api/v1/staff/conversions": {"get": {"tags": ["Staff Reports"], "summary": "List conversions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Conversions"}}}},
        "/api/v1/staff/reports/dashboard": {"get": {"tags": ["Staff Reports"], "summary": "Dashboard", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Dashboard"}}}},
        "/api/v1/staff/reports/export": {"get": {"tags": ["Staff Reports"], "summary": "Export workbook", "security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "Workbook"}}}},
        "/api/v1/staff/settings": {
            "get": {"tags": ["Staff Settings"], "summary": "Get site settings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Settings"}}},
            "put": {"tags": ["Staff Settings"], "summary": "Update site settings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Settings"}}}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "WebBuilder CRM API",
	Description:      "Lead intake, quoting and conversion tracking for a web design studio.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
