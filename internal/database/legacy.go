package database

import (
	"slices"
	"strings"

	"github.com/juniorxam/vacina/internal/models"
)

// legacyMapping describes how one table of the legacy store lands in the
// current schema. Columns absent from columns keep their name; columns in
// omit are never copied.
type legacyMapping struct {
	source    string
	target    string
	keyColumn string
	columns   map[string]string
	omit      []string
	transform func(Row)
}

func (m legacyMapping) rename(col string) string {
	if slices.Contains(m.omit, col) {
		return ""
	}
	if target, ok := m.columns[col]; ok {
		return target
	}
	return col
}

// legacyMappings is ordered so referenced tables are filled first.
var legacyMappings = []legacyMapping{
	{
		source:    "servidores",
		target:    "employees",
		keyColumn: "id_comp",
		columns: map[string]string{
			"numfunc":            "registration",
			"numvinc":            "bond",
			"nome":               "name",
			"data_nascimento":    "birth_date",
			"sexo":               "sex",
			"cargo":              "job_title",
			"lotacao":            "unit",
			"lotacao_fisica":     "physical_unit",
			"superintendencia":   "superintendence",
			"telefone":           "phone",
			"data_admissao":      "hired_at",
			"tipo_vinculo":       "bond_type",
			"situacao_funcional": "status",
			"data_cadastro":      "created_at",
			"usuario_cadastro":   "created_by",
		},
		transform: func(r Row) {
			if strings.TrimSpace(r.String("id_comp")) == "" {
				r["id_comp"] = models.CompositeID(r.String("registration"), r.String("bond"))
			}
			if _, ok := r["status"]; ok {
				r["status"] = translate(r.String("status"), employeeStatuses, models.EmployeeStatusActive)
			}
			if _, ok := r["cpf"]; ok {
				r["cpf"] = models.NormalizeCPF(r.String("cpf"))
			}
		},
	},
	{
		source:    "campanhas",
		target:    "campaigns",
		keyColumn: "name",
		columns: map[string]string{
			"nome_campanha":   "name",
			"vacina":          "vaccine",
			"publico_alvo":    "target_audience",
			"data_inicio":     "starts_on",
			"data_fim":        "ends_on",
			"descricao":       "description",
			"usuario_criacao": "created_by",
			"data_criacao":    "created_at",
		},
		transform: func(r Row) {
			if _, ok := r["status"]; ok {
				r["status"] = translate(r.String("status"), campaignStatuses, models.CampaignStatusPlanned)
			}
		},
	},
	{
		source:    "vacinas_cadastradas",
		target:    "vaccines",
		keyColumn: "name",
		omit:      []string{"id"},
		columns: map[string]string{
			"nome":              "name",
			"fabricante":        "manufacturer",
			"doses_necessarias": "required_doses",
			"intervalo_dias":    "interval_days",
			"via_aplicacao":     "route",
			"contraindicacoes":  "contraindications",
			"ativo":             "active",
		},
	},
	{
		source:    "doses",
		target:    "doses",
		keyColumn: "id",
		columns: map[string]string{
			"vacina":           "vaccine",
			"tipo_vacina":      "kind",
			"data_ap":          "applied_on",
			"data_ret":         "return_on",
			"lote":             "lot",
			"fabricante":       "manufacturer",
			"local_aplicacao":  "site",
			"via_aplicacao":    "route",
			"campanha_id":      "campaign_id",
			"usuario_registro": "recorded_by",
			"data_registro":    "recorded_at",
		},
		transform: func(r Row) {
			if _, ok := r["kind"]; ok {
				r["kind"] = translate(r.String("kind"), doseKinds, models.DoseKindRoutine)
			}
		},
	},
	{
		source:    "usuarios",
		target:    "accounts",
		keyColumn: "login",
		columns: map[string]string{
			"senha":             "password_hash",
			"nome":              "name",
			"nivel_acesso":      "tier",
			"lotacao_permitida": "allowed_unit",
			"ativo":             "active",
			"data_criacao":      "created_at",
		},
		transform: func(r Row) {
			if _, ok := r["tier"]; ok {
				tier, err := models.ParseTier(r.String("tier"))
				if err != nil {
					tier = models.TierViewer
				}
				r["tier"] = string(tier)
			}
			if _, ok := r["allowed_unit"]; ok {
				r["allowed_unit"] = translate(r.String("allowed_unit"), map[string]string{"TODOS": "ALL", "": "ALL"}, "")
			}
		},
	},
	{
		source:    "logs",
		target:    "audit_logs",
		keyColumn: "id",
		columns: map[string]string{
			"data_hora": "created_at",
			"usuario":   "login",
			"modulo":    "module",
			"acao":      "action",
			"detalhes":  "details",
		},
	},
}

var (
	employeeStatuses = map[string]string{
		"ATIVO":    models.EmployeeStatusActive,
		"INATIVO":  models.EmployeeStatusInactive,
		"AFASTADO": models.EmployeeStatusOnLeave,
		"":         models.EmployeeStatusActive,
	}
	campaignStatuses = map[string]string{
		"PLANEJADA": models.CampaignStatusPlanned,
		"ATIVA":     models.CampaignStatusActive,
		"CONCLUIDA": models.CampaignStatusFinished,
		"CONCLUÍDA": models.CampaignStatusFinished,
		"CANCELADA": models.CampaignStatusCancelled,
	}
	doseKinds = map[string]string{
		"CAMPANHA": models.DoseKindCampaign,
		"ROTINA":   models.DoseKindRoutine,
	}
)

// translate maps a legacy enum value. Unknown values are kept upper-cased
// and an empty value becomes fallback when one is given.
func translate(value string, table map[string]string, fallback string) string {
	key := strings.ToUpper(strings.TrimSpace(value))
	if v, ok := table[key]; ok {
		return v
	}
	if fallback != "" && key == "" {
		return fallback
	}
	return key
}
