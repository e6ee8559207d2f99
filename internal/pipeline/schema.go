package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema pins the output contract: key names, null-vs-absent rules
// and the closed enums. Consumers parse these files without us in the loop,
// so the shape is validated at write time.
const recordSchema = `{
  "type": "object",
  "required": [
    "invoice_number", "supplier_info", "po_numbers",
    "products", "services", "consistency_report",
    "extraction_status", "text_source"
  ],
  "properties": {
    "invoice_number": {"type": ["string", "null"]},
    "supplier_info": {
      "type": ["object", "null"],
      "required": ["name", "address"],
      "properties": {
        "name": {"type": ["string", "null"]},
        "address": {"type": ["string", "null"]}
      }
    },
    "po_numbers": {"type": "array", "items": {"type": "string", "pattern": "^PO-[0-9]+$"}},
    "products": {"type": "array", "items": {"$ref": "#/$defs/lineItem"}},
    "services": {"type": "array", "items": {"$ref": "#/$defs/lineItem"}},
    "consistency_report": {
      "type": "object",
      "required": ["product_inconsistencies", "service_inconsistencies", "po_inconsistencies"],
      "properties": {
        "product_inconsistencies": {"$ref": "#/$defs/category"},
        "service_inconsistencies": {"$ref": "#/$defs/category"},
        "po_inconsistencies": {"$ref": "#/$defs/category"}
      }
    },
    "extraction_status": {"enum": ["ok", "failed"]},
    "text_source": {"type": ["string", "null"]}
  },
  "$defs": {
    "lineItem": {
      "type": "object",
      "required": ["product_code", "description", "quantity", "unit_price", "total_price"],
      "properties": {
        "product_code": {"type": ["string", "null"]},
        "description": {"type": "string"},
        "quantity": {"type": ["number", "null"]},
        "unit_price": {"type": ["number", "null"]},
        "total_price": {"type": ["number", "null"]},
        "po_number": {"type": "string"}
      }
    },
    "category": {
      "type": "object",
      "required": ["findings", "total_inconsistencies"],
      "properties": {
        "findings": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["kind", "item_ref", "expected", "observed"],
            "properties": {
              "kind": {"enum": ["arithmetic_mismatch", "missing_reference", "malformed_value"]},
              "item_ref": {"type": "string"},
              "expected": {"type": "string"},
              "observed": {"type": "string"}
            }
          }
        },
        "total_inconsistencies": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var compiledRecordSchema = jsonschema.MustCompileString("record.json", recordSchema)

// ValidateRecordJSON checks serialized record bytes against the contract.
func ValidateRecordJSON(data []byte) error {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return compiledRecordSchema.Validate(doc)
}
