package conversation

const (
	promptEmptyInput        = "⚠️ Please enter a symptom, a query, or type 'exit' to finish."
	promptAskDays           = "🕒 How many days have you experienced these symptoms?"
	promptEnoughSymptoms    = "🕒 You've entered enough symptoms. How many days have you experienced them?"
	promptFiveSymptoms      = "🕒 You've entered 5 symptoms. How many days have you experienced them?"
	promptInvalidDays       = "⚠️ Please enter a valid number of days."
	promptEnterSymptom      = "✅ Please enter your symptom."
	promptPostDiagnosis     = "🤖 You can also now ask me general health-related queries!"
	promptDiagnosing        = "🔎 Diagnosing based on your symptoms..."
	promptDiagnosisFailed   = "⚠️ I couldn't complete the diagnosis right now. Please enter the number of days again to retry."
	promptFollowUp          = "❓ Do you have any other medical queries? Type them below or say 'no' to continue."
	promptQueryFailed       = "⚠️ Unable to fetch medical explanation at the moment."
	promptCollectFailed     = "⚠️ An error occurred while collecting symptoms. Please try again."
	promptNoRelated         = "ℹ️ No new related symptoms found. Try entering another symptom."
	promptRelatedSuffix     = "(Type 'edit' to modify symptoms or type 'exit' to finish)"
	promptNothingToEdit     = "⚠️ No symptoms to edit."
	promptEditHeader        = "📝 Click to remove a symptom:"
	promptAllRemoved        = "✅ You have removed all symptoms. Please enter a new symptom."
	promptCollectionClosed  = "⚠️ Symptom collection is complete. Please enter the number of days."
	promptNoSuchSymptom     = "⚠️ That symptom is no longer in your list."
	promptRecommendDoctor   = "🚨 Consult a doctor immediately!"
	promptFollowPrecautions = "✅ Follow precautions and monitor symptoms."
)
