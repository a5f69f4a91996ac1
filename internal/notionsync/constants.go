package notionsync

// Property names of the bill and reference databases.
const (
	PropTitle         = "标题"
	PropDate          = "日期"
	PropCategory      = "分类"
	PropProduct       = "商品"
	PropPayee         = "商家"
	PropMethod        = "支付方式"
	PropDirection     = "收/支"
	PropAmount        = "金额(元)"
	PropNote          = "备注"
	PropTransactionID = "交易单号"
	PropYear          = "年"
	PropMonth         = "月"
	PropWeek          = "周"
	PropDay           = "日"
)

// Icons attached to created pages.
const (
	IconPayee    = "https://www.notion.so/icons/shop_gray.svg"
	IconMethod   = "https://www.notion.so/icons/credit-card_gray.svg"
	IconCategory = "https://www.notion.so/icons/kind_gray.svg"
	IconCalendar = "https://www.notion.so/icons/target_red.svg"
	IconBill     = "https://www.notion.so/icons/cash_gray.svg"
)

// pageSize is the Notion maximum for paginated endpoints.
const pageSize = 100
