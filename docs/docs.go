// Package docs registers the Swagger 2.0 description served at /swagger.
// Keep it in step with the @Summary/@Router annotations in internal/handlers.
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
        "/api/v1/analysis": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Latest analysis",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ClassificationResult"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Classifies the current heart rate. Blocks for the configured analysis delay.",
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Run a stress analysis",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ClassificationResult"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/device/calibration": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Set SpO2 calibration",
                "parameters": [
                    {"description": "Calibration payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CalibrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "status, spo2, state", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/device/connect": {
            "post": {
                "description": "Opens the serial (local-link) or websocket (network-socket) link. Only one link may be active.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Connect to the device",
                "parameters": [
                    {"description": "Connect payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ConnectRequest"}}
                ],
                "responses": {
                    "200": {"description": "status, state", "schema": {"type": "object", "additionalProperties": true}},
                    "202": {"description": "connect canceled", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "501": {"description": "Not Implemented", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/device/disconnect": {
            "post": {
                "description": "Idempotent. Resets the current heart rate to 0.",
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Disconnect from the device",
                "responses": {
                    "200": {"description": "status, state", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/device/heart-rate": {
            "post": {
                "description": "Manual value for demonstrations; history is not modified.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Override the current heart rate",
                "parameters": [
                    {"description": "Heart rate payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.HeartRateRequest"}}
                ],
                "responses": {
                    "200": {"description": "status, heart_rate, state", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/device/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Rolling history",
                "responses": {
                    "200": {"description": "count, points", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/device/state": {
            "get": {
                "description": "Heart rate, calibration, connection state, analyzing flag, latest analysis and history.",
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Current device state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Snapshot"}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "description": "Connect, disconnect, error, analysis and calibration events of the running session, oldest first. 'from'/'to' accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' covers the whole day.",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List session events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range; date-only means end of day", "name": "to", "in": "query"},
                    {"enum": ["CONNECT", "DISCONNECT", "ERROR", "ANALYSIS", "CALIBRATION"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "Websocket. Sends a \"state\" envelope on connect and every interval, and an \"update\" envelope for every change (reading, connection, calibration, analysis, notice).",
                "tags": ["device"],
                "summary": "Live state stream",
                "parameters": [
                    {"type": "string", "description": "Snapshot period, e.g. 2s (max 10s)", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Snapshot period in ms (max 10000)", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.CalibrationRequest": {
            "type": "object",
            "required": ["spo2"],
            "properties": {
                "spo2": {"description": "SpO2 percentage stamped on new history points, 80..100", "type": "integer", "example": 98}
            }
        },
        "handlers.ConnectRequest": {
            "type": "object",
            "required": ["transport"],
            "properties": {
                "endpoint": {"description": "Device address for network-socket: host, host:port or ws(s):// URL", "type": "string", "example": "192.168.4.1"},
                "port": {"description": "Serial port for local-link; empty picks the first port found", "type": "string", "example": "/dev/ttyUSB0"},
                "transport": {"description": "Transport to use. Allowed: local-link, network-socket", "type": "string", "example": "network-socket"}
            }
        },
        "handlers.HeartRateRequest": {
            "type": "object",
            "required": ["heart_rate"],
            "properties": {
                "heart_rate": {"description": "Heart rate in BPM, >= 0", "type": "integer", "example": 72}
            }
        },
        "models.ClassificationResult": {
            "type": "object",
            "properties": {
                "analyzed_at": {"type": "string"},
                "heart_rate": {"type": "integer"},
                "reason": {"type": "string"},
                "spo2": {"type": "integer"},
                "stress_level": {"$ref": "#/definitions/models.StressLevel"},
                "suggestion": {"type": "string"}
            }
        },
        "models.ConnectionState": {
            "type": "string",
            "enum": ["DISCONNECTED", "CONNECTING", "CONNECTED"],
            "x-enum-varnames": ["StateDisconnected", "StateConnecting", "StateConnected"]
        },
        "models.HistoryPoint": {
            "type": "object",
            "properties": {
                "heart_rate": {"type": "integer"},
                "spo2": {"type": "integer"},
                "time": {"description": "mm:ss", "type": "string"}
            }
        },
        "models.Snapshot": {
            "type": "object",
            "properties": {
                "analysis": {"$ref": "#/definitions/models.ClassificationResult"},
                "analyzing": {"type": "boolean"},
                "connected": {"type": "boolean"},
                "heart_rate": {"type": "integer"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/models.HistoryPoint"}},
                "spo2": {"type": "integer"},
                "state": {"$ref": "#/definitions/models.ConnectionState"},
                "transport": {"$ref": "#/definitions/models.TransportKind"},
                "updated_at": {"type": "string"}
            }
        },
        "models.StressLevel": {
            "type": "string",
            "enum": ["Normal", "Mild Stress", "High Stress", "Unknown", "No Data"],
            "x-enum-varnames": ["StressNormal", "StressMild", "StressHigh", "StressUnknown", "StressNoData"]
        },
        "models.TransportKind": {
            "type": "string",
            "enum": ["local-link", "network-socket"],
            "x-enum-varnames": ["TransportLocalLink", "TransportNetworkSocket"]
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "NeuroCalm API",
	Description:      "Heart-rate telemetry ingest, live state stream and stress classification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
