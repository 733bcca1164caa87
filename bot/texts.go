package bot

// All user-facing texts, in the bot's operating language. Internal logs
// stay English.
const (
	textWelcome      = "እንኳን ደህና መጡ! 🏠 የቤት ማስታወቂያ ለማስገባት ከታች ይጫኑ።"
	textAskName      = "እባክዎ ሙሉ ስምዎን ያስገቡ።"
	textNameTooShort = "ስም ቢያንስ 2 ፊደላት መሆን አለበት። እባክዎ እንደገና ያስገቡ።"
	textAskPhone     = "ስልክ ቁጥርዎን ያስገቡ (ለምሳሌ +251911223344)።"
	textBadPhone     = "ትክክለኛ ስልክ ቁጥር ያስገቡ (10-15 አሃዝ)።"
	textAskRole      = "እርስዎ ማን ነዎት?"
	textAskCategory  = "የቤቱን አይነት ይምረጡ።"
	textAskTitle     = "የቤቱን ዝርዝር አይነት ይምረጡ።"
	textAskLocation  = "የቤቱን አድራሻ ያስገቡ።"
	textBadLocation  = "አድራሻ ቢያንስ 3 ፊደላት መሆን አለበት።"
	textAskPrice     = "ዋጋ ያስገቡ (ለምሳሌ 15,000 ብር/ወር)።"
	textBadPrice     = "እባክዎ ትክክለኛ ዋጋ ያስገቡ።"
	textAskContact   = "ተጨማሪ የመገናኛ መረጃ ካለ ያስገቡ ወይም ይዝለሉ።"
	textAskDesc      = "ዝርዝር መግለጫ ያስገቡ (ቢያንስ 20 ፊደላት)።"
	textDescTooShort = "መግለጫ ቢያንስ 20 ፊደላት መሆን አለበት።"
	textDescTooLong  = "መግለጫው በጣም ረዝሟል። እባክዎ ያሳጥሩ።"
	textAskCover     = "የቤቱን ዋና ፎቶ ይላኩ።"
	textNeedPhoto    = "እባክዎ ፎቶ ይላኩ።"
	textAskMore      = "ተጨማሪ ፎቶዎች ይላኩ ወይም 'ጨርሻለሁ' ይጫኑ።"
	textAskLink      = "የሌላ ድረ-ገጽ ማስፈንጠሪያ ካለ ያስገቡ ወይም ይዝለሉ።"
	textBadLink      = "ትክክለኛ ማስፈንጠሪያ አይደለም። እባክዎ እንደገና ያስገቡ።"
	textSubmitted    = "✅ ማስታወቂያዎ ቀርቧል! አስተዳዳሪ ከፈቀደ በኋላ በቻናሉ ላይ ይለቀቃል።"
	textCancelled    = "ተሰርዟል። ዳግም ለመጀመር /start ይጫኑ።"
	textStopped      = "ውይይቱ ቆሟል። ዳግም ለመጀመር /start ይጫኑ።"

	textBadCount = "ከ1 እስከ 50 ያለ ቁጥር ያስገቡ።"

	textBtnSubmit    = "🏠 ቤት አስተዋውቅ"
	textBtnMine      = "📋 የእኔ ማስታወቂያ"
	textBtnSkip      = "ዝለል ▶️"
	textBtnDone      = "ጨርሻለሁ ✅"
	textBtnCancel    = "ሰርዝ ❌"
	textBtnBack      = "⬅️ ተመለስ"
	textBtnRetry     = "🔄 እንደገና ሞክር"
	textBtnApprove   = "✅ አጽድቅ"
	textBtnEdit      = "✏️ አስተካክል"
	textBtnReject    = "❌ አትቀበል"
	textBtnContactMe = "☎️ አግኙኝ"

	textNoDraft      = "በሂደት ላይ ያለ ማስታወቂያ የለዎትም።"
	textNotFound     = "አልተገኘም።"
	textNotAdmin     = "ይህ ትዕዛዝ ለአስተዳዳሪዎች ብቻ ነው።"
	textFailure      = "ችግር ተፈጥሯል። እባክዎ እንደገና ይሞክሩ።"
	textUnknown      = "ያልታወቀ ትዕዛዝ ነው። /start ይጫኑ።"
	textMediaLimit   = "ከ8 ፎቶ/ቪዲዮ በላይ ማስገባት አይቻልም።"
	textMediaPartial = "ከ8 በላይ ስለሆኑ የተወሰኑት ብቻ ተቀባይነት አግኝተዋል።"

	textApproved         = "🎉 ማስታወቂያዎ ጸድቆ በቻናሉ ላይ ተለቋል!"
	textRejectedPrefix   = "😞 ማስታወቂያዎ ተቀባይነት አላገኘም። ምክንያት፦ "
	textAskRejectReason  = "የመከልከያ ምክንያት ያስገቡ (ቢያንስ 3 ፊደላት)።"
	textReasonTooShort   = "ምክንያቱ ቢያንስ 3 ፊደላት መሆን አለበት።"
	textNoPending        = "በመጠባበቅ ላይ ያለ ማስታወቂያ የለም።"
	textAlreadyPublished = "ይህ ማስታወቂያ አስቀድሞ ተለቋል።"

	textAdminPanel      = "🛠 የአስተዳዳሪ ፓነል"
	textBtnPending      = "📋 በመጠባበቅ ላይ"
	textBtnTokens       = "🔑 ቶከን አውጣ"
	textBtnBroadcast    = "📢 መልዕክት አሰራጭ"
	textBtnNewListing   = "➕ አዲስ ማስታወቂያ"
	textBtnDashboard    = "📊 ዳሽቦርድ ቶከን"
	textBtnMediaManage  = "🖼 ፎቶዎች"
	textBtnMediaAdd     = "➕ ጨምር"
	textBtnMediaReplace = "🔁 ቀይር"
	textBtnMediaDelete  = "🗑 አጥፋ"
	textMediaMenuTitle  = "የፎቶ አስተዳደር ይምረጡ።"
	textMediaDeleted    = "ሁሉም ፎቶዎች ተሰርዘዋል።"
	textMediaSendNow    = "ፎቶዎቹን ይላኩ። ሲጨርሱ 'ጨርሻለሁ' ይጫኑ።"
	textMediaSaved      = "ፎቶዎቹ ተቀምጠዋል።"
	textEditWhich       = "የትኛውን መረጃ ማስተካከል ይፈልጋሉ?"
	textEditSaved       = "ተስተካክሏል።"
	textChooseAction    = "ምን ይደረግ?"

	textTokenKind       = "የቶከን አይነት ይምረጡ።"
	textBtnLicense      = "License"
	textBtnRecovery     = "Recovery"
	textTokenMode       = "የፈቃድ አይነት ይምረጡ።"
	textBtnPermanent    = "Permanent"
	textBtnPeriodic     = "Periodic"
	textAskDays         = "ለስንት ቀን? (ቁጥር ያስገቡ)"
	textAskMinutes      = "ለስንት ደቂቃ? (ቁጥር ያስገቡ)"
	textBadNumber       = "ትክክለኛ ቁጥር ያስገቡ።"
	textAskDeviceID     = "የመሣሪያውን መለያ (device ID) ያስገቡ።"
	textDeviceRequired  = "የመሣሪያ መለያ ግዴታ ነው።"
	textAskNote         = "ማስታወሻ ካለ ያስገቡ ወይም ይዝለሉ።"
	textTokenReady      = "🔑 ቶከን ተፈጥሯል፦"
	textDashboardPrefix = "📊 የዳሽቦርድ ቶከን (ለ24 ሰዓት)፦"

	textBroadcastAud     = "መልዕክቱ ለማን ይላክ?"
	textBtnAudAll        = "ለሁሉም"
	textAskBroadcastMsg  = "የሚላከውን መልዕክት ያስገቡ።"
	textAskBroadcastMed  = "ፎቶ ካለ ይላኩ ወይም ይዝለሉ።"
	textBtnSend          = "📤 ላክ"
	textBroadcastConfirm = "መልዕክቱ ይላክ?"
	textBroadcastDone    = "ተልኳል።"

	textNewListingName  = "የአስተዋዋቂውን ስም ያስገቡ።"
	textNewListingPhone = "የአስተዋዋቂውን ስልክ ቁጥር ያስገቡ።"
	textNewListingLink  = "ማስፈንጠሪያ ካለ ያስገቡ ወይም ይዝለሉ።"

	textRentedMarked = "እንደተከራየ ተመዝግቧል።"
)
