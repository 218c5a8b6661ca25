// Package webhook receives Telegram updates over HTTP and presents them as an
// update listener.
//
// Telegram delivers each update as a POST request to the URL registered with
// setWebhook. The package registers that URL, serves it on a tcp address or a
// unix socket, authenticates requests with the secret token, and queues the
// decoded updates for the application. Stopping the listener deletes the
// webhook and drains the server.
//
// # Request Flow
//
//  1. POST arrives at the configured URL path
//  2. X-Telegram-Bot-Api-Secret-Token header removed and checked
//     (malformed -> 400, mismatch -> 401, constant-time comparison)
//  3. Producer end of the update queue obtained (gone -> 503)
//  4. Stop flag checked (stopped -> producer withdrawn, 503)
//  5. Body decoded as tgbotapi.Update (unparseable -> logged, 200)
//  6. Update enqueued, 200 returned
//
// Unparseable bodies are acknowledged so that Telegram does not redeliver a
// payload that will never parse.
//
// # Error Responses
//
//   - 400 Bad Request: malformed secret header
//   - 401 Unauthorized: secret mismatch
//   - 413 Payload Too Large: body exceeds Options.MaxBodySize
//   - 503 Service Unavailable: listener stopped
//
// # Lifecycle
//
// Webhook runs everything. ToRouter registers the webhook and returns a
// handler for an existing server together with a channel that is closed once
// the webhook has been deleted after stop. NoSetup does no registration at
// all.
//
// # Example Usage
//
//	opts, err := webhook.NewOptions(webhook.Unix("/run/bot/bot.sock"), "https://example.com/bot")
//	if err != nil {
//		return err
//	}
//	l, err := webhook.Webhook(api, opts, webhook.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	go func() {
//		<-ctx.Done()
//		l.StopToken().Stop()
//	}()
//	for update := range l.Updates() {
//		handle(update)
//	}
//	return l.Wait(context.Background())
package webhook
