package validator

type Schema string

const (
	SchemaSignup        Schema = "signup"
	SchemaSignin        Schema = "signin"
	SchemaUserUpdate    Schema = "user_update"
	SchemaProductCreate Schema = "product_create"
	SchemaOrderCreate   Schema = "order_create"
	SchemaOrderStatus   Schema = "order_status"
)

var schemaSources = map[Schema]string{
	SchemaSignup: `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["username", "email", "password", "confirmPassword", "address", "phoneNumber"],
  "properties": {
    "username":        {"type": "string", "minLength": 3, "maxLength": 30},
    "email":           {"type": "string", "format": "email"},
    "password":        {"type": "string", "minLength": 6, "maxLength": 72},
    "confirmPassword": {"type": "string"},
    "address":         {"type": "string", "minLength": 1, "maxLength": 255},
    "phoneNumber":     {"type": "string", "pattern": "^[0-9]{10}$"},
    "role":            {"type": "string", "enum": ["Buyer", "Seller"]}
  },
  "additionalProperties": false
}`,

	SchemaSignin: `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["email", "password"],
  "properties": {
    "email":    {"type": "string", "format": "email"},
    "password": {"type": "string", "minLength": 1}
  }
}`,

	SchemaUserUpdate: `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "minProperties": 1,
  "properties": {
    "username":    {"type": "string", "minLength": 3, "maxLength": 30},
    "email":       {"type": "string", "format": "email"},
    "password":    {"type": "string", "minLength": 6, "maxLength": 72},
    "address":     {"type": "string", "minLength": 1, "maxLength": 255},
    "phoneNumber": {"type": "string", "pattern": "^[0-9]{10}$"},
    "role":        {"type": "string", "enum": ["Buyer", "Seller", "Admin"]}
  },
  "additionalProperties": false
}`,

	SchemaProductCreate: `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "description", "price", "category", "stock", "location"],
  "properties": {
    "name":        {"type": "string", "minLength": 3, "maxLength": 100},
    "description": {"type": "string", "minLength": 10, "maxLength": 1000},
    "price":       {"type": "number", "exclusiveMinimum": 0},
    "category":    {"type": "string", "minLength": 3, "maxLength": 50},
    "stock":       {"type": "integer", "minimum": 0},
    "location":    {"type": "string", "minLength": 3, "maxLength": 200}
  }
}`,

	SchemaOrderCreate: `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["quantity", "paymentChannel", "shippingAddress"],
  "properties": {
    "quantity":       {"type": "integer", "minimum": 1},
    "paymentChannel": {"type": "string", "enum": ["MOMO", "CARD", "CASH", "AIRTEL_MONEY"]},
    "currency":       {"type": "string", "pattern": "^[A-Z]{3}$"},
    "shippingAddress": {
      "type": "object",
      "required": ["fullName", "phoneNumber", "streetAddress", "city"],
      "properties": {
        "fullName":      {"type": "string", "minLength": 1, "maxLength": 100},
        "phoneNumber":   {"type": "string", "minLength": 1, "maxLength": 20},
        "streetAddress": {"type": "string", "minLength": 1, "maxLength": 255},
        "city":          {"type": "string", "minLength": 1, "maxLength": 100}
      }
    }
  }
}`,

	SchemaOrderStatus: `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status"],
  "properties": {
    "status":       {"type": "string", "enum": ["Pending", "Shipped", "Delivered", "Cancelled"]},
    "deliveryDate": {"type": "string", "format": "date-time"}
  }
}`,
}
