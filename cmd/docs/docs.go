// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/fintrack_backend/main.go -o cmd/docs
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
        "/accounts/{id}": {
            "get": {
                "summary": "Get an account by ID",
                "description": "Returns the account and its current balance.",
                "tags": [
                    "accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Account ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/accounts": {
            "get": {
                "summary": "List accounts",
                "tags": [
                    "accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/credit-cards/{id}": {
            "get": {
                "summary": "Get a credit card by ID",
                "description": "Returns the card and its current bill.",
                "tags": [
                    "credit-cards"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Credit card ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/credit-cards": {
            "get": {
                "summary": "List credit cards",
                "tags": [
                    "credit-cards"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/categories": {
            "get": {
                "summary": "List categories",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "summary": "User login",
                "description": "Authenticates a user with email and password and returns a JWT.",
                "tags": [
                    "auth"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "login",
                        "in": "body",
                        "required": true,
                        "description": "Login credentials",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "429": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/auth/register": {
            "post": {
                "summary": "Register new user",
                "description": "Creates a new login.",
                "tags": [
                    "auth"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "register",
                        "in": "body",
                        "required": true,
                        "description": "User registration info",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "409": {
                        "description": "Email already registered"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Show the status of the server",
                "description": "Reports whether the API and its database are up.",
                "tags": [
                    "root"
                ],
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "database unavailable"
                    }
                }
            }
        },
        "/parsers": {
            "get": {
                "summary": "List supported bank codes",
                "tags": [
                    "statements"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/statements": {
            "post": {
                "summary": "Upload a statement file",
                "description": "Stores the file and creates a pending statement. The same file cannot be uploaded twice.",
                "tags": [
                    "statements"
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "file",
                        "in": "formData",
                        "required": true,
                        "description": "Statement file",
                        "type": "file"
                    },
                    {
                        "name": "creditCardId",
                        "in": "formData",
                        "required": true,
                        "description": "Credit card the statement belongs to",
                        "type": "integer"
                    },
                    {
                        "name": "bankCode",
                        "in": "formData",
                        "required": true,
                        "description": "Parser to use, see /parsers",
                        "type": "string"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Credit card not found"
                    },
                    "409": {
                        "description": "File already uploaded"
                    },
                    "413": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            },
            "get": {
                "summary": "List statements",
                "tags": [
                    "statements"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "creditCardId",
                        "in": "query",
                        "required": false,
                        "description": "Credit card filter",
                        "type": "integer"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "pending, reviewed, imported or cancelled",
                        "type": "string"
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "required": false,
                        "description": "YYYY-MM-DD",
                        "type": "string"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "required": false,
                        "description": "YYYY-MM-DD",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/statements/{id}": {
            "get": {
                "summary": "Get a statement",
                "tags": [
                    "statements"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Statement ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/statements/{id}/parse": {
            "post": {
                "summary": "Parse a pending statement",
                "description": "Extracts line items, suggests categories and flags duplicates. A failed parse cancels the statement.",
                "tags": [
                    "statements"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Statement ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "File could not be parsed"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "422": {
                        "description": "Statement is not pending"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/statements/{id}/import": {
            "post": {
                "summary": "Import a reviewed statement",
                "description": "Creates a transaction per remaining line item. The body is optional.",
                "tags": [
                    "statements"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Statement ID",
                        "type": "integer"
                    },
                    {
                        "name": "import",
                        "in": "body",
                        "required": false,
                        "description": "Exclusions and review overrides",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "422": {
                        "description": "Statement is not reviewed or nothing is left to import"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/statements/{id}/line-items": {
            "get": {
                "summary": "List a statement's line items",
                "tags": [
                    "statements"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Statement ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/statements/{id}/line-items/{itemId}": {
            "patch": {
                "summary": "Review a line item",
                "description": "Sets the final category or the duplicate flag while the statement is reviewed.",
                "tags": [
                    "statements"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Statement ID",
                        "type": "integer"
                    },
                    {
                        "name": "itemId",
                        "in": "path",
                        "required": true,
                        "description": "Line item ID",
                        "type": "integer"
                    },
                    {
                        "name": "item",
                        "in": "body",
                        "required": true,
                        "description": "Review fields",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "422": {
                        "description": "Statement is not reviewed"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/transactions": {
            "post": {
                "summary": "Record a transaction",
                "description": "Creates an income, expense or transfer and applies it to balances and bills.",
                "tags": [
                    "transactions"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "transaction",
                        "in": "body",
                        "required": true,
                        "description": "Transaction",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Account, card or category not found"
                    },
                    "422": {
                        "description": "Insufficient funds"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            },
            "get": {
                "summary": "List transactions",
                "description": "Newest first, paginated with an opaque nextToken.",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "type",
                        "in": "query",
                        "required": false,
                        "description": "income, expense or transfer",
                        "type": "string"
                    },
                    {
                        "name": "accountId",
                        "in": "query",
                        "required": false,
                        "description": "Account filter",
                        "type": "integer"
                    },
                    {
                        "name": "creditCardId",
                        "in": "query",
                        "required": false,
                        "description": "Credit card filter",
                        "type": "integer"
                    },
                    {
                        "name": "categoryId",
                        "in": "query",
                        "required": false,
                        "description": "Category filter",
                        "type": "integer"
                    },
                    {
                        "name": "startDate",
                        "in": "query",
                        "required": false,
                        "description": "YYYY-MM-DD",
                        "type": "string"
                    },
                    {
                        "name": "endDate",
                        "in": "query",
                        "required": false,
                        "description": "YYYY-MM-DD",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "nextToken",
                        "in": "query",
                        "required": false,
                        "description": "Token from the previous page",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        },
        "/transactions/{id}": {
            "get": {
                "summary": "Get a transaction",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Transaction ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            },
            "patch": {
                "summary": "Update a transaction",
                "description": "Reverses the stored effect and applies the updated one atomically.",
                "tags": [
                    "transactions"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Transaction ID",
                        "type": "integer"
                    },
                    {
                        "name": "transaction",
                        "in": "body",
                        "required": true,
                        "description": "Fields to change",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "422": {
                        "description": "Insufficient funds"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            },
            "delete": {
                "summary": "Delete a transaction",
                "description": "Reverses the transaction's effect and removes it.",
                "tags": [
                    "transactions"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Transaction ID",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Error"
                    },
                    "401": {
                        "description": "Error"
                    },
                    "404": {
                        "description": "Error"
                    },
                    "500": {
                        "description": "Error"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Fintrack API",
	Description:      "Personal finance ledger with credit card statement reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
