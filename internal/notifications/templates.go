package notifications

import "fmt"

// Rendered message templates. Plain fmt over html/template: the bodies
// are fixed shapes with a handful of scalar slots and no user-supplied
// markup beyond names, which stay in text context.

// QueueJoinedEmail confirms a customer's spot right after joining.
func QueueJoinedEmail(customerName, queueName string, position int, estimatedWait string) EmailMessage {
	return EmailMessage{
		Subject: fmt.Sprintf("You've joined the queue at %s", queueName),
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYou've successfully joined the queue at %s.\n\n"+
				"Your current position: #%d\nEstimated wait time: %s\n\n"+
				"We'll notify you when it's almost your turn. Please make sure you're ready when called.\n\n"+
				"Thank you for using Sqipit!",
			customerName, queueName, position, estimatedWait),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>You've successfully joined the queue at <strong>%s</strong>.</p>"+
				"<p><strong>Your Position:</strong> #%d<br><strong>Estimated Wait Time:</strong> %s</p>"+
				"<p>We'll notify you when it's almost your turn. Please make sure you're ready when called.</p>"+
				"<p>Thank you for using Sqipit!</p>",
			customerName, queueName, position, estimatedWait),
	}
}

// NextInLineEmail tells the customer they are being called now.
func NextInLineEmail(customerName, queueName, serviceLocation string) EmailMessage {
	return EmailMessage{
		Subject: fmt.Sprintf("It's your turn at %s!", queueName),
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nIT'S YOUR TURN!\n\nYou're next in line at %s.\nPlease proceed to: %s\n\n"+
				"If you're not ready, you may lose your spot in the queue.\n\n"+
				"Thank you for using Sqipit!",
			customerName, queueName, serviceLocation),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p><strong>YOU'RE NEXT IN LINE!</strong></p>"+
				"<p><strong>Location:</strong> %s<br><strong>Proceed to:</strong> %s</p>"+
				"<p><strong>Important:</strong> If you're not ready, you may lose your spot in the queue.</p>"+
				"<p>Thank you for using Sqipit!</p>",
			customerName, queueName, serviceLocation),
	}
}

// AlmostYourTurnEmail is the heads-up sent when the customer nears the front.
func AlmostYourTurnEmail(customerName, queueName string, position int, estimatedWait string) EmailMessage {
	return EmailMessage{
		Subject: fmt.Sprintf("Almost your turn at %s", queueName),
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYou're almost up at %s!\n\n"+
				"Your current position: #%d\nEstimated wait time: %s\n\n"+
				"Please start making your way to the location so you're ready when called.\n\n"+
				"Thank you for using Sqipit!",
			customerName, queueName, position, estimatedWait),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>You're almost up at <strong>%s</strong>!</p>"+
				"<p><strong>Your Position:</strong> #%d<br><strong>Estimated Wait Time:</strong> %s</p>"+
				"<p>Please start making your way to the location so you're ready when called.</p>"+
				"<p>Thank you for using Sqipit!</p>",
			customerName, queueName, position, estimatedWait),
	}
}

func QueueJoinedSMS(customerName, queueName string, position int, estimatedWait string) string {
	return fmt.Sprintf("Hi %s! You've joined the queue at %s. Position: #%d. Estimated wait: %s. We'll notify you when it's your turn!",
		customerName, queueName, position, estimatedWait)
}

func NextInLineSMS(customerName, queueName, serviceLocation string) string {
	return fmt.Sprintf("IT'S YOUR TURN, %s! Please proceed to %s at %s. Don't keep them waiting!",
		customerName, serviceLocation, queueName)
}

func AlmostYourTurnSMS(customerName, queueName string, position int, estimatedWait string) string {
	return fmt.Sprintf("Almost your turn, %s! Position #%d at %s. Est. wait: %s. Please get ready!",
		customerName, position, queueName, estimatedWait)
}
