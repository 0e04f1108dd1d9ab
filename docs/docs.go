// Package docs registra el documento OpenAPI que sirve /swagger/*.
// Se regenera con `swag init -g cmd/api/main.go` a partir de las anotaciones
// de los handlers.
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
        "/api/breeds": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Listar razas por especie",
                "parameters": [
                    {"type": "string", "description": "DOG o CAT", "name": "species", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/patients.breedsResponse"}},
                    "400": {"description": "invalid species", "schema": {"type": "string"}}
                }
            }
        },
        "/api/patients/default": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Ficha inicial",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/patients.Record"}}
                }
            }
        },
        "/api/prompt": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Vista previa del prompt",
                "parameters": [
                    {"description": "Ficha y texto del archivo", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/analysis.promptRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.promptResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}}
                }
            }
        },
        "/api/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Iniciar sesión de consulta",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/intake.sessionResponse"}}
                }
            }
        },
        "/api/sessions/{sessionID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Estado de la sesión",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/intake.sessionResponse"}},
                    "404": {"description": "session not found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/sessions/{sessionID}/patient": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Actualizar ficha del paciente",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "sessionID", "in": "path", "required": true},
                    {"description": "Ficha", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/patients.Record"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/intake.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/intake.errorResponse"}},
                    "404": {"description": "session not found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/sessions/{sessionID}/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Subir planilla de resultados",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "sessionID", "in": "path", "required": true},
                    {"type": "file", "description": "Planilla", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/intake.sessionResponse"}},
                    "404": {"description": "session not found", "schema": {"type": "string"}},
                    "422": {"description": "archivo rechazado", "schema": {"$ref": "#/definitions/intake.errorResponse"}}
                }
            }
        },
        "/api/sessions/{sessionID}/analyze": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Analizar",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/intake.sessionResponse"}},
                    "400": {"description": "ficha inválida", "schema": {"$ref": "#/definitions/intake.errorResponse"}},
                    "404": {"description": "session not found", "schema": {"type": "string"}},
                    "409": {"description": "reemplazado por un análisis más nuevo", "schema": {"$ref": "#/definitions/intake.errorResponse"}}
                }
            }
        },
        "/api/sessions/{sessionID}/report.html": {
            "get": {
                "produces": ["text/html"],
                "tags": ["sessions"],
                "summary": "Descargar reporte HTML",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "ai_vet_report.html", "schema": {"type": "string"}},
                    "404": {"description": "no report", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "patients.Record": {
            "type": "object",
            "properties": {
                "species": {"type": "string", "enum": ["DOG", "CAT"]},
                "breed": {"type": "string"},
                "customBreed": {"type": "string"},
                "name": {"type": "string"},
                "ageYears": {"type": "string"},
                "ageMonths": {"type": "string"},
                "sex": {"type": "string", "enum": ["male", "female", ""]},
                "isNeutered": {"type": "boolean"},
                "testDate": {"type": "string"},
                "specialNotes": {"type": "string"},
                "vetNotes": {"type": "string"}
            }
        },
        "patients.breedsResponse": {
            "type": "object",
            "properties": {
                "species": {"type": "string"},
                "label": {"type": "string"},
                "breeds": {"type": "array", "items": {"type": "string"}},
                "custom_breed": {"type": "string"}
            }
        },
        "analysis.promptRequest": {
            "type": "object",
            "properties": {
                "patient": {"$ref": "#/definitions/patients.Record"},
                "file_text": {"type": "string"}
            }
        },
        "analysis.promptResponse": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string"},
                "bytes": {"type": "integer"}
            }
        },
        "intake.sessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "patient": {"$ref": "#/definitions/patients.Record"},
                "file_name": {"type": "string"},
                "file_bytes": {"type": "integer"},
                "upload_error": {"type": "string"},
                "result": {"type": "string"},
                "fallback": {"type": "boolean"},
                "model": {"type": "string"},
                "analysis_error": {"type": "string"},
                "in_flight": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "intake.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "session": {"$ref": "#/definitions/intake.sessionResponse"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vet Lab Report API",
	Description:      "Ficha del paciente + planilla de laboratorio -> reporte HTML generado por LLM.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
