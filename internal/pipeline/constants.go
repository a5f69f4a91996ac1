package pipeline

// Column names of the supported WeChat Pay / Alipay bill exports.
const (
	// HeaderSentinel identifies the real header row; rows above it are statement metadata.
	HeaderSentinel = "交易时间"

	ColumnDirection    = "收/支"
	ColumnCounterparty = "交易对方"
	ColumnNote         = "备注"
)

// Alternative header names per canonical field, in priority order.
var (
	CategoryColumns      = []string{"交易类型", "交易分类"}
	DescriptionColumns   = []string{"商品", "商品说明"}
	AmountColumns        = []string{"金额(元)", "金额"}
	PaymentMethodColumns = []string{"支付方式", "收/付款方式"}
	TransactionIDColumns = []string{"交易单号", "交易订单号"}
)

// ArchiveURLPattern matches the first download link of a zipped export in free text.
const ArchiveURLPattern = `https?://\S+\.zip`

// csvSuffix is the only file suffix parsed out of an extracted archive.
const csvSuffix = ".csv"
