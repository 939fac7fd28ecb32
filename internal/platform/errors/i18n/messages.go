package i18n

// Keys must match the codes in internal/platform/errors/codes.go; they are
// repeated as strings to avoid an import cycle.

var enUS = map[string]string{
	"UNKNOWN":                  "Something went wrong.",
	"MALFORMED_INPUT":          "The {{.Document}} document is invalid at field {{.Field}}.",
	"REFERENTIAL_WARNING":      "{{.Field}} refers to {{.Reference}}, which is not defined.",
	"RESERVED_KEY":             "{{.Field}} uses the reserved name {{.Reference}}.",
	"SYSTEM_NAME_EMPTY":        "A system needs a name.",
	"SYSTEM_ID_IMMUTABLE":      "The identifier of system {{.SystemID}} cannot change.",
	"CHARACTER_SYSTEM_MISSING": "Character references unknown system {{.SystemID}}.",
	"INVALID_FILTER":           "The filter expression could not be understood.",
	"NOT_FOUND":                "The requested {{.Resource}} was not found.",
	"IDENTIFIER_COLLISION":     "A {{.Resource}} with identifier {{.ID}} already exists.",
}

var ptBR = map[string]string{
	"UNKNOWN":                  "Algo deu errado.",
	"MALFORMED_INPUT":          "Documento {{.Document}} inválido no campo {{.Field}}.",
	"REFERENTIAL_WARNING":      "{{.Field}} referencia {{.Reference}}, que não está definido.",
	"RESERVED_KEY":             "{{.Field}} usa o nome reservado {{.Reference}}.",
	"SYSTEM_NAME_EMPTY":        "Um sistema precisa de um nome.",
	"SYSTEM_ID_IMMUTABLE":      "O identificador do sistema {{.SystemID}} não pode mudar.",
	"CHARACTER_SYSTEM_MISSING": "Personagem referencia o sistema desconhecido {{.SystemID}}.",
	"INVALID_FILTER":           "A expressão de filtro não pôde ser interpretada.",
	"NOT_FOUND":                "O recurso {{.Resource}} não foi encontrado.",
	"IDENTIFIER_COLLISION":     "Já existe um {{.Resource}} com o identificador {{.ID}}.",
}
