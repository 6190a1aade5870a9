package constants

// OData metadata namespaces and markers for Employee Central.
const (
	// SchemaNamespace identifies the EDMX schema holding EC entity types.
	SchemaNamespace = "SFOData"
	// EDMNamespace is the OData v2 entity data model namespace.
	EDMNamespace = "http://schemas.microsoft.com/ado/2008/09/edm"
	// SAPNamespace holds the sap:-prefixed field annotations.
	SAPNamespace = "http://www.successfactors.com/edm/sap"

	// NavigationSuffix marks JSON keys that traverse to another entity.
	NavigationSuffix = "Nav"
	// MetadataEnvelopeKey is the OData per-record envelope, skipped when flattening.
	MetadataEnvelopeKey = "__metadata"
)

// Endpoint template placeholders substituted before each query.
const (
	PlaceholderServerBraced = "{{Test_API-Server}}"
	PlaceholderServer       = "{Test_API-Server}"
	PlaceholderToday        = "{today}"
)

// DefaultEntitySets is the entity list documented by default; overridable
// via configuration.
var DefaultEntitySets = []string{
	"User", "PerPerson", "EmpEmployment", "EmpJob", "PerPersonal",
	"PerNationalId",
	"PaymentInformationV3", "PaymentInformationDetailV3", "cust_PaymentInformationDetailV3CHN",
	"EmpEmploymentTermination",
	"Position", "FODepartment", "PickListValueV2", "FOJobCode",
	"cust_LOA", "cust_LOAItem",
}
